/*
Copyright © 2026 the plasmakin authors.
This file is part of plasmakin.

plasmakin is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

plasmakin is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with plasmakin.  If not, see <http://www.gnu.org/licenses/>.
*/

package kinutil

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/plasmakin/science/chem/argon"
)

const testNetwork = `
Species = ["A", "B"]
TableDir = "tables"

[[Reactions]]
Equation = "A + A -> B"
Rate = "Constant"
Value = 2
`

// writeNetwork writes a network file to a new temporary directory
// and returns its path.
func writeNetwork(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "kinutil")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "network.toml")
	if err := ioutil.WriteFile(path, []byte(testNetwork), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	b := new(bytes.Buffer)
	Root.SetOutput(b)
	Root.SetArgs(args)
	err := Root.Execute()
	return b.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "plasmakin v") {
		t.Errorf("have %q", out)
	}
}

func TestTerms(t *testing.T) {
	Cfg.Set("network", "")
	out, err := run(t, "terms")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"kernel_prod0_em + Ar -> em + em + Ar+",
		"energy_kernel0_0_em + Ar -> em + em + Ar+",
		"elastic_kernel1_0_em + Ar -> em + Ar",
		"aux sum_charged",
		"aux rate_kernel0_em + Ar -> em + em + Ar+",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}
}

func TestMatrix(t *testing.T) {
	path := writeNetwork(t)
	defer os.RemoveAll(filepath.Dir(path))
	Cfg.Set("network", path)
	defer Cfg.Set("network", "")
	out, err := run(t, "matrix")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "species: A B") || !strings.Contains(out, "0: A + A -> B") {
		t.Errorf("have %q", out)
	}
}

func TestCheck(t *testing.T) {
	t.Run("argon", func(t *testing.T) {
		Cfg.Set("network", "")
		if _, err := run(t, "check"); err != nil {
			t.Error(err)
		}
	})
	t.Run("file", func(t *testing.T) {
		path := writeNetwork(t)
		defer os.RemoveAll(filepath.Dir(path))
		Cfg.Set("network", path)
		Cfg.Set("point", map[string]interface{}{"A": 3, "B": 1})
		defer func() {
			Cfg.Set("network", "")
			Cfg.Set("point", "{}")
		}()
		out, err := run(t, "check")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "kernel0_A + A -> B") {
			t.Errorf("have %q", out)
		}
	})
}

// Jacobian mismatch warnings honor the configured log level.
func TestCheckLogLevel(t *testing.T) {
	Cfg.Set("network", "")
	Cfg.Set("tolerance", -1.0) // every term fails
	defer func() {
		Cfg.Set("tolerance", 1.0e-5)
		Cfg.Set("loglevel", "warning")
	}()
	for _, test := range []struct {
		level string
		warn  bool
	}{
		{level: "warning", warn: true},
		{level: "error", warn: false},
	} {
		Cfg.Set("loglevel", test.level)
		out, err := run(t, "check")
		if err == nil {
			t.Errorf("%s: expected an error for a negative tolerance", test.level)
		}
		if warned := strings.Contains(out, "Jacobian mismatch"); warned != test.warn {
			t.Errorf("%s: warning printed = %v, want %v", test.level, warned, test.warn)
		}
	}
}

func TestHash(t *testing.T) {
	Cfg.Set("network", "")
	a, err := run(t, "hash")
	if err != nil {
		t.Fatal(err)
	}
	Cfg.Set("log", true)
	defer Cfg.Set("log", false)
	b, err := run(t, "hash")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("linear and log networks have the same fingerprint %s", a)
	}
}

func TestNetworkConfig(t *testing.T) {
	path := writeNetwork(t)
	defer os.RemoveAll(filepath.Dir(path))
	Cfg.Set("network", path)
	defer Cfg.Set("network", "")
	c, err := NetworkConfig(Cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(filepath.Dir(path), "tables"); c.TableDir != want {
		t.Errorf("table directory: have %s, want %s", c.TableDir, want)
	}
	if len(c.Reactions) != 1 || c.Reactions[0].Value != 2 {
		t.Errorf("reactions: %+v", c.Reactions)
	}
}

func TestCheckPoint(t *testing.T) {
	Cfg.Set("network", "")
	Cfg.Set("point", `{"mean_en": 5e16}`)
	Cfg.Set("gasdensity", 1e24)
	defer func() {
		Cfg.Set("point", "{}")
		Cfg.Set("gasdensity", 0.0)
	}()
	p, err := checkPoint(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Value(argon.Energy) != 5e16 || p.GasDensity != 1e24 {
		t.Errorf("have %+v", p)
	}
	if p.Value(argon.Electrons) != 1e16 {
		t.Errorf("electrons: have %g", p.Value(argon.Electrons))
	}
	Cfg.Set("point", "{")
	if _, err := checkPoint(Cfg); err == nil {
		t.Error("expected an error for an invalid point")
	}
}
