package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mathhub-edu/mathhub/cmd/mathhub/config"
	"github.com/mathhub-edu/mathhub/gate"
)

var rootCmd = &cobra.Command{
	Use:               "mhctl",
	Short:             "mhctl can help you manage your math hub",
	Long:              "mhctl manages access codes and inspects the attempt log and sessions of a math hub, working directly on its storage.",
	PersistentPreRunE: loadConfig,
	PersistentPostRun: closeStorage,
	SilenceUsage:      true,
}

var (
	configFile   string
	theGate      *gate.Gate
	closeDurable func() error
)

func loadConfig(*cobra.Command, []string) error {
	config.Load(configFile)
	c := config.Get()
	durable, closer, err := config.LoadDurable(c)
	if err != nil {
		return err
	}
	closeDurable = closer
	theGate = gate.New(
		durable, gate.Config{
			BuiltinCodes:     c.Gate.BuiltinCodes,
			DefaultAdminCode: c.Gate.AdminCode,
			MaxAttempts:      c.Gate.MaxAttempts,
			MaxSessions:      c.Gate.MaxSessions,
			TimeLayout:       c.Gate.TimeLayout,
		}, gate.Deps{},
	)
	return nil
}

func closeStorage(*cobra.Command, []string) {
	if closeDurable == nil {
		return
	}
	if err := closeDurable(); err != nil {
		log.WithError(err).Warn("could not close storage")
	}
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the config file to use")
	rootCmd.AddCommand(codesCmd(), adminCodeCmd(), logsCmd(), sessionsCmd(), checkCmd())
}

func codesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage custom access codes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all local access codes",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				w := table()
				for _, c := range theGate.Codes.BuiltinCodes() {
					_, _ = fmt.Fprintf(w, "%s\tbuiltin\n", c)
				}
				for _, c := range theGate.Codes.LocalCodes() {
					_, _ = fmt.Fprintf(w, "%s\tcustom\n", c)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "add <code>...",
			Short: "Add custom access codes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				for _, c := range args {
					if err := theGate.Codes.AddCode(c); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <code>...",
			Short: "Remove custom access codes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				for _, c := range args {
					if err := theGate.Codes.RemoveCode(c); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return cmd
}

func adminCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin-code",
		Short: "Manage the local admin code override",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the admin code in effect without a remote configuration",
			Args:  cobra.NoArgs,
			Run: func(*cobra.Command, []string) {
				source := "default"
				if theGate.Codes.AdminOverride() != "" {
					source = "override"
				}
				fmt.Printf("%s (%s)\n", theGate.Codes.AdminCode(nil), source)
			},
		},
		&cobra.Command{
			Use:   "set <code>",
			Short: "Set the admin code override",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return theGate.Codes.SetAdminOverride(args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the admin code override",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return theGate.Codes.ClearAdminOverride()
			},
		},
	)
	return cmd
}

func logsCmd() *cobra.Command {
	var (
		limit      int
		failedOnly bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List login attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			attempts := theGate.Attempts.List()
			w := table()
			_, _ = fmt.Fprintln(w, "TIME\tUSER\tCODE\tSTATUS\tIP\tCOUNTRY")
			n := 0
			for i := len(attempts) - 1; i >= 0; i-- {
				a := attempts[i]
				if failedOnly && a.Success {
					continue
				}
				_, _ = fmt.Fprintf(
					w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.Timestamp, a.Username, a.Code, a.Status(), a.IP, a.Country,
				)
				n++
				if limit > 0 && n >= limit {
					break
				}
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of entries; 0 lists all")
	list.Flags().BoolVar(&failedOnly, "failed", false, "only list failed attempts")

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the login attempt log",
	}
	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "clear",
			Short: "Clear the login attempt log",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return theGate.Attempts.Clear()
			},
		},
	)
	return cmd
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			w := table()
			_, _ = fmt.Fprintln(w, "LOGIN TIME\tUSER\tADMIN\tDEVICE\tID")
			for _, s := range theGate.Sessions.List() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", s.LoginTime, s.Username, s.IsAdmin, s.Device, s.ID)
			}
			return w.Flush()
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <code>",
		Short: "Tell how a code would be classified, without recording an attempt",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			res := theGate.Classify(nil, args[0])
			switch {
			case res.IsAdmin:
				fmt.Println("admin")
			case res.Success:
				fmt.Println("user")
			default:
				fmt.Println("invalid")
			}
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
