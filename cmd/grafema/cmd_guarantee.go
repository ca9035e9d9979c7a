package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"grafema/internal/datalog"
	"grafema/internal/graph"
	"grafema/internal/guarantee"
	"grafema/internal/mangle/synth"
)

var guaranteeCmd = &cobra.Command{
	Use:   "guarantee",
	Short: "Manage durable guarantees over the graph",
}

var guaranteeClearExisting bool

var (
	guaranteeID       string
	guaranteeName     string
	guaranteeRule     string
	guaranteeSpecPath string
	guaranteeSeverity string
	guaranteeGoverns  []string
)

var guaranteeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Define a new guarantee",
	Long: `Creates a GUARANTEE node from --rule and emits GOVERNS edges to every
MODULE whose relative path matches a --governs glob. --id defaults to a
generated UUID when omitted.

--rule takes Datalog text directly; --spec instead takes the path to a JSON
guarantee spec (mangle_synth_v1 format) that is compiled to a single clause
before storage. This lets an agent emit a structured guarantee definition
without hand-writing Datalog. Exactly one of --rule/--spec is required.`,
	RunE: runGuaranteeCreate,
}

var guaranteeExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export every guarantee to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuaranteeExport,
}

var guaranteeImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import guarantees from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuaranteeImport,
}

var guaranteeCheckCmd = &cobra.Command{
	Use:   "check [id]",
	Short: "Check one guarantee (or every guarantee, if id is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGuaranteeCheck,
}

var guaranteeDriftCmd = &cobra.Command{
	Use:   "drift <path>",
	Short: "Compare the graph's guarantees against a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuaranteeDrift,
}

var guaranteeExplainCmd = &cobra.Command{
	Use:   "explain <id>",
	Short: "Print the proof tree behind a guarantee's rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runGuaranteeExplain,
}

func init() {
	guaranteeCreateCmd.Flags().StringVar(&guaranteeID, "id", "", "guarantee id (default: a generated UUID)")
	guaranteeCreateCmd.Flags().StringVar(&guaranteeName, "name", "", "human-readable name")
	guaranteeCreateCmd.Flags().StringVar(&guaranteeRule, "rule", "", "Datalog rule text")
	guaranteeCreateCmd.Flags().StringVar(&guaranteeSpecPath, "spec", "", "path to a mangle_synth_v1 JSON guarantee spec, compiled to a rule")
	guaranteeCreateCmd.Flags().StringVar(&guaranteeSeverity, "severity", string(guarantee.SeverityWarning), "error|warning|info")
	guaranteeCreateCmd.Flags().StringArrayVar(&guaranteeGoverns, "governs", nil, "glob matched against module paths (repeatable)")
	guaranteeCreateCmd.MarkFlagsOneRequired("rule", "spec")
	guaranteeCreateCmd.MarkFlagsMutuallyExclusive("rule", "spec")

	guaranteeImportCmd.Flags().BoolVar(&guaranteeClearExisting, "clear-existing", false, "replace all existing guarantees instead of skipping known ids")
	guaranteeCmd.AddCommand(guaranteeCreateCmd, guaranteeExportCmd, guaranteeImportCmd, guaranteeCheckCmd, guaranteeDriftCmd, guaranteeExplainCmd)
}

func runGuaranteeCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, cleanup, err := openGuaranteeManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	rule := guaranteeRule
	if guaranteeSpecPath != "" {
		rule, err = compileGuaranteeSpec(guaranteeSpecPath)
		if err != nil {
			return err
		}
	}

	id := guaranteeID
	if id == "" {
		id = uuid.NewString()
	}
	def := guarantee.Definition{
		ID: id, Name: guaranteeName, Rule: rule,
		Severity: guarantee.Severity(guaranteeSeverity), Governs: guaranteeGoverns,
	}
	if err := mgr.Create(ctx, def); err != nil {
		return err
	}
	fmt.Printf("created guarantee %s\n", id)
	return nil
}

// compileGuaranteeSpec reads a mangle_synth_v1 JSON spec from path and
// compiles it to the single Datalog clause a guarantee's Rule field expects.
func compileGuaranteeSpec(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var spec synth.Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return "", fmt.Errorf("parse guarantee spec %s: %w", path, err)
	}
	options := synth.DefaultOptions()
	options.RequireSingleClause = true
	result, err := synth.Compile(spec, options)
	if err != nil {
		return "", fmt.Errorf("compile guarantee spec %s: %w", path, err)
	}
	return result.SingleClause()
}

func openGuaranteeManager(ctx context.Context) (*guarantee.Manager, func(), error) {
	b, err := openBackend()
	if err != nil {
		return nil, nil, err
	}
	engine, err := datalog.New(datalog.DefaultConfig())
	if err != nil {
		closeBackend(b)
		return nil, nil, err
	}
	if err := engine.LoadGraph(ctx, b); err != nil {
		closeBackend(b)
		return nil, nil, err
	}
	singletons := graph.NewSingletons()
	mgr := guarantee.New(b, singletons, engine)
	return mgr, func() { closeBackend(b) }, nil
}

func runGuaranteeExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, cleanup, err := openGuaranteeManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mgr.Export(ctx, args[0], time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	fmt.Printf("exported guarantees to %s\n", args[0])
	return nil
}

func runGuaranteeImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, cleanup, err := openGuaranteeManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := mgr.Import(ctx, args[0], guarantee.ImportOptions{ClearExisting: guaranteeClearExisting})
	if err != nil {
		return err
	}
	fmt.Printf("imported %d guarantee(s) from %s\n", n, args[0])
	return nil
}

func runGuaranteeCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, cleanup, err := openGuaranteeManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) == 1 {
		res := mgr.Check(ctx, args[0])
		if res.Error != nil {
			return res.Error
		}
		fmt.Printf("%s: passed=%v violations=%d\n", args[0], res.Passed, res.ViolationCount)
		for _, v := range res.Violations {
			fmt.Printf("  %s (%s) at %s:%d\n", v.Name, v.Type, v.File, v.Line)
		}
		return nil
	}

	all, err := mgr.CheckAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("checked %d guarantee(s): %d passed, %d failed, %d error(s)\n", all.Total, all.Passed, all.Failed, len(all.Errors))
	for _, e := range all.Errors {
		fmt.Printf("  error: %v\n", e)
	}
	if all.Failed > 0 {
		return fmt.Errorf("%d guarantee(s) failed", all.Failed)
	}
	return nil
}

func runGuaranteeExplain(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, cleanup, err := openGuaranteeManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	trace, err := mgr.Explain(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Print(trace)
	return nil
}

func runGuaranteeDrift(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, cleanup, err := openGuaranteeManager(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	drift, err := mgr.Drift(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("only in graph: %v\n", drift.OnlyInGraph)
	fmt.Printf("only in file:  %v\n", drift.OnlyInFile)
	fmt.Printf("modified:      %v\n", drift.Modified)
	fmt.Printf("unchanged:     %d guarantee(s)\n", len(drift.Unchanged))
	return nil
}
