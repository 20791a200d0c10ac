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

// Package kinutil contains the command-line interface of plasmakin.
package kinutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/plasmakin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/mat"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to plasmakin.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "network",
			usage: `
              network specifies the location of a TOML reaction network file.
              If it is empty, the predefined argon mechanism is used.`,
			shorthand:  "n",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log",
			usage: `
              log specifies whether species densities of the predefined argon
              mechanism are solved as logarithms. Network files set UseLog
              themselves.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel is the level of diagnostics printed while the network is
              built: debug, info, warning or error.`,
			defaultVal: "warning",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "point",
			usage: `
              point gives field values (as a json object of variable names and
              values) at which the check command evaluates the Jacobians.
              Values override those of the predefined argon point.`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{checkCmd.Flags()},
		},
		{
			name: "gasdensity",
			usage: `
              gasdensity is the background gas density used by the check command.
              Zero keeps the default.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{checkCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the largest relative difference between analytic and
              finite-difference Jacobians that the check command accepts.`,
			defaultVal: 1.0e-5,
			flagsets:   []*pflag.FlagSet{checkCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PLASMAKIN")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]float64:
				b := bytes.NewBuffer(nil)
				json.NewEncoder(b).Encode(v)
				set.StringP(option.name, option.shorthand, strings.TrimSpace(b.String()), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(termsCmd)
	Root.AddCommand(matrixCmd)
	Root.AddCommand(checkCmd)
	Root.AddCommand(hashCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("plasmakin: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// buildNetwork builds the configured reaction network. It also
// returns the logger configured by the "loglevel" option, which
// writes to the output of cmd.
func buildNetwork(cmd *cobra.Command) (*plasmakin.Network, logrus.FieldLogger, error) {
	log, err := newLogger(Cfg, cmd.OutOrStderr())
	if err != nil {
		return nil, nil, err
	}
	c, err := NetworkConfig(Cfg, log)
	if err != nil {
		return nil, nil, err
	}
	n, err := plasmakin.Build(c)
	return n, log, err
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "plasmakin",
	Short: "A plasma-chemistry reaction network compiler.",
	Long: `plasmakin turns a plasma-chemistry reaction network into the residual and
Jacobian source terms of the species and energy equations.
Use the subcommands specified below to inspect and verify a network.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'PLASMAKIN_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of plasmakin.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("plasmakin v%s\n", plasmakin.Version)
	},
	DisableAutoGenTag: true,
}

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List the generated terms.",
	Long: `terms builds the reaction network and lists every generated term with the
variable it contributes to, its family and the variables it is coupled to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _, err := buildNetwork(cmd)
		if err != nil {
			return err
		}
		s := n.Summary()
		for _, t := range s.Terms {
			cmd.Printf("%-48s %-10s %-28s %g [%s]\n", t.Name, t.Variable, t.Family, t.Coeff,
				strings.Join(t.Coupled, " "))
		}
		for _, a := range n.AuxKernels() {
			cmd.Printf("aux %-44s %s\n", a.Name(), a.Variable())
		}
		for _, st := range n.Stabilizers() {
			cmd.Printf("%-48s %-10s offset %g\n", st.Name(), st.Variable(), st.Offset)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the stoichiometric matrix.",
	Long: `matrix prints the net stoichiometric matrix of the network, with one row
per reaction and one column per participating species.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _, err := buildNetwork(cmd)
		if err != nil {
			return err
		}
		m, species := n.Stoichiometry()
		cmd.Printf("species: %s\n", strings.Join(species, " "))
		for i, r := range n.Reactions() {
			cmd.Printf("%d: %s\n", i, r.Equation)
		}
		cmd.Printf("%v\n", mat.Formatted(m, mat.Squeeze()))
		return nil
	},
	DisableAutoGenTag: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the analytic Jacobians.",
	Long: `check compares the analytic Jacobian of every term with a central
finite-difference approximation at the configured point and fails if any
relative difference exceeds the tolerance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, log, err := buildNetwork(cmd)
		if err != nil {
			return err
		}
		p, err := checkPoint(Cfg)
		if err != nil {
			return err
		}
		tol := Cfg.GetFloat64("tolerance")
		var failed []string
		for _, k := range n.Kernels() {
			vars := append([]string{k.Variable()}, k.Coupled()...)
			e, checks := plasmakin.CheckJacobian(k, p, vars)
			cmd.Printf("%-48s %.3g\n", k.Name(), e)
			if e > tol {
				failed = append(failed, k.Name())
				for _, c := range checks {
					log.WithFields(logrus.Fields{
						"term":     k.Name(),
						"variable": c.Variable,
						"analytic": c.Analytic,
						"numeric":  c.Numeric,
					}).Warn("plasmakin: Jacobian mismatch")
				}
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("plasmakin: %d terms exceed the Jacobian tolerance %g: %s",
				len(failed), tol, strings.Join(failed, ", "))
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the network fingerprint.",
	Long: `hash prints a fingerprint of the resolved network. Two configurations
with the same fingerprint generate the same terms.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _, err := buildNetwork(cmd)
		if err != nil {
			return err
		}
		cmd.Println(n.Fingerprint())
		return nil
	},
	DisableAutoGenTag: true,
}
