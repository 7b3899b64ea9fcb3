package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"hr-leave/internal/app"
	"hr-leave/internal/config"
	"hr-leave/internal/jobs"
	"hr-leave/internal/leave"
	"hr-leave/internal/policy"
	"hr-leave/internal/shared/apperror"
	"hr-leave/internal/shared/audit"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// cliApp connects to the database lazily so the pure calculators run without one.
type cliApp struct {
	cfg     *config.Config
	logger  *zap.Logger
	infra   *app.Infra
	modules *app.Modules
}

func (a *cliApp) init() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	apperror.Init()
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *cliApp) connect() (*app.Modules, error) {
	if a.modules != nil {
		return a.modules, nil
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	infra, err := app.Connect(a.cfg, false)
	if err != nil {
		return nil, err
	}
	modules, err := app.NewModules(infra, nil, audit.NewStdoutLogger(a.logger), nil)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	a.infra = infra
	a.modules = modules
	return modules, nil
}

func (a *cliApp) close() {
	if a.infra != nil {
		_ = a.infra.Close()
	}
}

func newRootCmd(a *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:           "leavectl",
		Short:         "Operator tooling for the leave service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(entitlementCmd())
	root.AddCommand(businessDaysCmd())
	root.AddCommand(carryOverCmd(a))
	root.AddCommand(reconcileCmd(a))
	return root
}

func parseDateFlag(name, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func entitlementCmd() *cobra.Command {
	var hire, asOf string
	var year int

	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "Compute the base annual entitlement for a hire date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hireDate, err := parseDateFlag("hire", hire)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asOf != "" {
				ref, err := parseDateFlag("as-of", asOf)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\n", leave.EntitlementAsOf(hireDate, ref))
				return nil
			}
			if year == 0 {
				year = time.Now().Year()
			}
			fmt.Fprintf(out, "%d\n", leave.Entitlement(hireDate, year))
			return nil
		},
	}
	cmd.Flags().StringVar(&hire, "hire", "", "Hire date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&year, "year", 0, "Calendar year (default: current year)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Count first-year months only up to this date")
	_ = cmd.MarkFlagRequired("hire")
	return cmd
}

func businessDaysCmd() *cobra.Command {
	var from, to, policyFile string

	cmd := &cobra.Command{
		Use:   "business-days",
		Short: "Count chargeable days between two dates using the holiday calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateFlag("from", from)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("to", to)
			if err != nil {
				return err
			}
			defaults, err := policy.LoadFile(policyFile)
			if err != nil {
				return err
			}
			days, err := leave.BusinessDays(start, end, nil, defaults.Calendar)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), days.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&policyFile, "policy", "config/leave_policy.yaml", "Policy defaults file with the holiday calendar")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func carryOverCmd(a *cliApp) *cobra.Command {
	var companyID, actorID string
	var year int
	var async bool

	cmd := &cobra.Command{
		Use:   "carry-over",
		Short: "Close a leave year for a company and open the next one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if async {
				if err := a.init(); err != nil {
					return err
				}
				client := jobs.NewClient(asynq.RedisClientOpt{Addr: a.cfg.RedisAddr})
				defer client.Close()
				id, err := client.EnqueueCarryOver(ctx, companyID, year, actorID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", id)
				return nil
			}

			modules, err := a.connect()
			if err != nil {
				return err
			}
			result, err := modules.CarryOver.Run(ctx, companyID, actorID, year)
			if err != nil {
				return err
			}
			writeCarryOver(cmd.OutOrStdout(), result)
			if result.Failed > 0 {
				return fmt.Errorf("%d employees failed", result.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "Company id")
	cmd.Flags().IntVar(&year, "year", time.Now().Year()-1, "Year to close")
	cmd.Flags().StringVar(&actorID, "actor", "", "Employee id recorded as the author")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the run on the job worker")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func writeCarryOver(w io.Writer, result leave.CarryOverResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPLOYEE\tSTATUS\tCARRY\tNEW BALANCE\tERROR")
	for _, e := range result.Employees {
		balance := "-"
		if e.NewBalance != nil {
			balance = fmt.Sprintf("%.1f", *e.NewBalance)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\n", e.EmployeeName, e.Status, e.CarryOver, balance, e.Error)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d -> %d: processed=%d skipped=%d failed=%d\n",
		result.Year, result.TargetYear, result.Processed, result.Skipped, result.Failed)
}

func reconcileCmd(a *cliApp) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check request deductions and balances against the ledger journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, err := a.connect()
			if err != nil {
				return err
			}
			report, err := modules.CarryOver.Reconcile(cmd.Context(), companyID)
			if err != nil {
				return err
			}
			return writeReconcile(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "Company id")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

// writeReconcile prints the report and returns leave.ErrReconcileMismatch when it is dirty.
func writeReconcile(w io.Writer, report leave.ReconcileReport) error {
	fmt.Fprintf(w, "checked %d requests, %d employees\n", report.CheckedRequests, report.CheckedEmployees)
	for _, m := range report.RequestMismatches {
		fmt.Fprintf(w, "request %s (%s, deleted=%t): expected %.1f journal %.1f\n",
			m.LeaveID, m.Status, m.Deleted, m.Expected, m.JournalTotal)
	}
	for _, m := range report.BalanceMismatches {
		fmt.Fprintf(w, "employee %s: balance %.1f journal %.1f\n", m.EmployeeID, m.Balance, m.JournalValue)
	}
	if len(report.RequestMismatches) > 0 || len(report.BalanceMismatches) > 0 {
		return leave.ErrReconcileMismatch
	}
	fmt.Fprintln(w, "ok")
	return nil
}
