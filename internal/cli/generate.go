package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavexcore/pavexc/pkg/codegen"
	"github.com/pavexcore/pavexc/pkg/compiler"
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/resolver"
	"github.com/pavexcore/pavexc/pkg/rustdoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newGenerateCmd() *cobra.Command {
	var (
		blueprintPath string
		rootRef       string
		outputPath    string
		deps          []string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile a Blueprint into a generated server crate",
		Long: `Loads a serialized Blueprint and the root crate's rustdoc JSON, resolves
every registered constructor, route, and middleware into a borrow-checked
call graph per route, and writes the generated server crate's Rust source
to the output directory.

Examples:
  pavexc generate --blueprint ./app.blueprint.json --root ./app.rustdoc.json -o ./generated
  pavexc generate --blueprint ./app.blueprint.json --root ./app.rustdoc.json -o ./generated --dep pavex=0.1.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			outDir, err := resolveOutputDir(outputPath)
			if err != nil {
				return err
			}

			c, opts, err := buildCompileOptions(blueprintPath, rootRef, deps)
			if err != nil {
				return err
			}

			table := newStageTable(cmd.OutOrStdout())
			table.PrintInitial()
			result, err := c.Generate(context.Background(), opts, outDir)
			table.FinishFromDiagnostics(result)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&blueprintPath, "blueprint", "", "Path to the serialized Blueprint JSON (required)")
	cmd.Flags().StringVar(&rootRef, "root", "", "Crate reference for the root crate's rustdoc JSON (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Generated crate output directory")
	cmd.Flags().StringArrayVar(&deps, "dep", nil, "Pinned manifest dependency, name=version (repeatable)")
	_ = cmd.MarkFlagRequired("blueprint")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		blueprintPath string
		rootRef       string
		outputPath    string
		deps          []string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether generation would change the output directory",
		Long: `Runs the same compilation pipeline as 'generate' but never writes to
disk. Exits non-zero if the generated source would differ from what is
already on disk at the output directory — the same check CI should run to
catch a stale checked-in generated crate.

Examples:
  pavexc check --blueprint ./app.blueprint.json --root ./app.rustdoc.json -o ./generated`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			outDir, err := resolveOutputDir(outputPath)
			if err != nil {
				return err
			}

			c, opts, err := buildCompileOptions(blueprintPath, rootRef, deps)
			if err != nil {
				return err
			}

			table := newStageTable(cmd.OutOrStdout())
			table.PrintInitial()
			changed, result, err := c.Check(context.Background(), opts, outDir)
			table.FinishFromDiagnostics(result)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), "generated source is stale")
				return fmt.Errorf("output directory %q does not match a fresh generation", outDir)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "generated source is up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&blueprintPath, "blueprint", "", "Path to the serialized Blueprint JSON (required)")
	cmd.Flags().StringVar(&rootRef, "root", "", "Crate reference for the root crate's rustdoc JSON (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Generated crate output directory to compare against")
	cmd.Flags().StringArrayVar(&deps, "dep", nil, "Pinned manifest dependency, name=version (repeatable)")
	_ = cmd.MarkFlagRequired("blueprint")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

// buildCompileOptions assembles a Compiler and its Options from the flags
// shared by 'generate' and 'check'.
func buildCompileOptions(blueprintPath, rootRef string, deps []string) (*compiler.Compiler, compiler.Options, error) {
	blueprint, err := componentdb.LoadBlueprintFile(blueprintPath)
	if err != nil {
		return nil, compiler.Options{}, fmt.Errorf("loading blueprint: %w", err)
	}

	entries, err := parseManifestEntries(deps)
	if err != nil {
		return nil, compiler.Options{}, err
	}

	res := resolver.NewResolver(resolver.Options{CacheDir: viper.GetString(ConfigKeyCacheDir)})
	loader := rustdoc.NewLoader()
	c := compiler.New(res, loader)

	opts := compiler.Options{
		RootRef:         rootRef,
		Blueprint:       blueprint,
		ManifestEntries: entries,
	}
	return c, opts, nil
}

// parseManifestEntries parses --dep name=version flags into ManifestEntry
// values, defaulting to a single pinned entry for the pavex runtime crate
// every generated server crate depends on.
func parseManifestEntries(deps []string) ([]codegen.ManifestEntry, error) {
	if len(deps) == 0 {
		return []codegen.ManifestEntry{{Name: "pavex", Version: "0.1.0", PackageID: "pavex 0.1.0"}}, nil
	}

	entries := make([]codegen.ManifestEntry, 0, len(deps))
	for _, d := range deps {
		name, version, ok := strings.Cut(d, "=")
		if !ok || name == "" || version == "" {
			return nil, fmt.Errorf("invalid --dep %q, want name=version", d)
		}
		entries = append(entries, codegen.ManifestEntry{
			Name:      name,
			Version:   version,
			PackageID: fmt.Sprintf("%s %s", name, version),
		})
	}
	return entries, nil
}
