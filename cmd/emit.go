package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/proxytype/pkg/action/emit"
)

func init() {
	rootCmd.AddCommand(NewEmitCommand())
}

// emitFlags maps emit config keys onto the flags that override them.
var emitFlags = map[string]string{
	"definitions":    "definitions",
	"templates":      "templates",
	"in_dir":         "input-directory",
	"out_dir":        "output-directory",
	"package":        "package",
	"module_prefix":  "module-prefix",
	"key":            "key",
	"sign_templates": "sign-templates",
	"strict":         "strict",
}

// bindFlags binds the running command's flags to the emit keys.
func bindFlags(c *cobra.Command, _ []string) error {
	for key, flag := range emitFlags {
		if err := viper.BindPFlag("emit."+key, c.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// emitOptions reads the merged emit configuration.
func emitOptions() (*emit.Options, error) {
	options := emit.NewOptions()
	if err := viper.UnmarshalKey("emit", options); err != nil {
		return nil, err
	}
	options.Log = slog.Default()
	return options, nil
}

func addEmitFlags(c *cobra.Command) {
	c.Flags().StringSliceP("definitions", "d", []string{}, "definition files or glob patterns")
	c.Flags().StringSliceP("templates", "t", []string{}, "Go package patterns providing template interfaces")
	c.Flags().StringP("input-directory", "i", ".", "directory templates are loaded from")
	c.Flags().StringP("output-directory", "o", "proxies", "directory to write generated files")
	c.Flags().StringP("package", "p", "", "package name of generated files (derived from the output directory when empty)")
	c.Flags().String("module-prefix", "proxytype", "prefix of the generated module names")
	c.Flags().String("key", "", "hex public key of the signed module")
	c.Flags().Bool("sign-templates", false, "treat template packages as signed")
	c.Flags().Bool("strict", false, "fail on generic constraints the output can not express")
}

func NewEmitCommand() *cobra.Command {
	// emitCmd represents the proxytype emit command
	var emitCmd = &cobra.Command{
		Use:     "emit",
		Short:   "emit proxy types",
		Long:    "Build the types described by definition files and write them as Go source",
		PreRunE: bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			options, err := emitOptions()
			if err != nil {
				return err
			}
			options.Definitions = append(options.Definitions, args...)
			res, err := emit.Generate(c.Context(), options)
			if err != nil {
				return err
			}
			slog.Default().With("dir", res.Dir, "files", res.Files, "types", len(res.Types)).Info("emitted")
			return nil
		},
	}
	addEmitFlags(emitCmd)
	return emitCmd
}
