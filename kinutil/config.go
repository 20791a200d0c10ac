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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/plasmakin"
	"github.com/spatialmodel/plasmakin/science/chem/argon"
	"github.com/spf13/cast"
)

// NetworkConfig reads the network configuration named by the
// "network" option. When no network file is given, the predefined
// argon mechanism is used. Relative table directories are resolved
// against the directory of the network file.
func NetworkConfig(cfg *viper.Viper, log logrus.FieldLogger) (*plasmakin.Config, error) {
	path := os.ExpandEnv(cfg.GetString("network"))
	if path == "" {
		c, err := argon.Mechanism{Log: cfg.GetBool("log")}.Config()
		if err != nil {
			return nil, err
		}
		c.Log = log
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plasmakin: opening network file: %v", err)
	}
	defer f.Close()
	c, err := plasmakin.LoadConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, path)
	}
	if c.TableDir != "" {
		c.TableDir = os.ExpandEnv(c.TableDir)
		if !filepath.IsAbs(c.TableDir) {
			c.TableDir = filepath.Join(filepath.Dir(path), c.TableDir)
		}
	}
	c.Log = log
	return c, nil
}

// newLogger creates a logger writing to out at the level given by the
// "loglevel" option.
func newLogger(cfg *viper.Viper, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(cfg.GetString("loglevel"))
	if err != nil {
		return nil, fmt.Errorf("plasmakin: loglevel: %v", err)
	}
	log := logrus.New()
	log.Out = out
	log.Level = lvl
	return log, nil
}

// checkPoint builds the evaluation point of the check command. Field
// values come from the "point" option; the argon mechanism supplies
// its own representative point when no network file is given.
func checkPoint(cfg *viper.Viper) (*plasmakin.Point, error) {
	fields, err := getStringMapFloat("point", cfg)
	if err != nil {
		return nil, err
	}
	var p *plasmakin.Point
	if cfg.GetString("network") == "" {
		p = argon.Mechanism{Log: cfg.GetBool("log")}.Point()
	} else {
		p = &plasmakin.Point{Test: 1, Phi: 1, Fields: make(map[string]float64)}
	}
	for k, v := range fields {
		p.Fields[k] = v
	}
	if g := cfg.GetFloat64("gasdensity"); g > 0 {
		p.GasDensity = g
	}
	return p, nil
}

// getStringMapFloat returns a map[string]float64 from a viper
// configuration, accounting for the fact that it might be a json
// object if it was set from a command line argument.
func getStringMapFloat(varName string, cfg *viper.Viper) (map[string]float64, error) {
	i := cfg.Get(varName)
	var m map[string]interface{}
	switch v := i.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&m); err != nil {
			return nil, fmt.Errorf("plasmakin: %s: %v", varName, err)
		}
	default:
		var err error
		if m, err = cast.ToStringMapE(i); err != nil {
			return nil, fmt.Errorf("plasmakin: %s: %v", varName, err)
		}
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("plasmakin: %s.%s: %v", varName, k, err)
		}
		o[os.ExpandEnv(k)] = f
	}
	return o, nil
}
