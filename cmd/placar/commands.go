package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chaz8081/placar/internal/backend"
	"github.com/chaz8081/placar/internal/ble"
	"github.com/chaz8081/placar/internal/ble/protocol"
	"github.com/chaz8081/placar/internal/config"
	"github.com/chaz8081/placar/internal/console"
	"github.com/chaz8081/placar/internal/scoreboard"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List nearby scoreboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext()
			defer cancel()

			link := newLink(cfg)
			defer link.Close()

			fmt.Printf("Scanning for %s...\n", cfg.BLE.ScanDuration)
			devices, err := link.Discover(ctx)
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No scoreboard found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tRSSI")
			for _, p := range devices {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.ID, p.DisplayName(), p.RSSI)
			}
			return w.Flush()
		},
	}
}

func controlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "control",
		Short: "Open the scoreboard control screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(true)
			if err != nil {
				return err
			}
			defer closer.Close()

			link := newLink(cfg)
			defer func() {
				if err := link.Close(); err != nil {
					slog.Warn("[BLE] disconnect on exit failed", "error", err)
				}
			}()

			notices := console.NewNoticeQueue(16)
			link.Manager().OnStateChange(func(state ble.State, p ble.Peripheral) {
				slog.Info("[BLE] state change", "state", state.String(), "id", p.ID)
				if state == ble.StateIdle && p.ID != "" {
					notices.Notify(scoreboard.Notice{
						Level:   scoreboard.LevelWarn,
						Title:   "Disconnected",
						Message: p.DisplayName() + " is no longer connected. Press tab to scan again.",
					})
				}
			})

			api := newAPI(cfg)
			session := scoreboard.NewSession(link, scoreboard.Options{
				TickInterval: cfg.Scoreboard.TickInterval,
				Notifier:     notices,
				Recorder:     api,
			})
			defer session.Close()

			model := console.New(console.Options{
				Link:        link,
				Session:     session,
				Games:       api,
				Notices:     notices,
				ScanTimeout: cfg.BLE.ScanDuration + cfg.BLE.ConnectTimeout,
				OpTimeout:   cfg.BLE.ConnectTimeout,
			})
			defer model.Close()
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func sendCmd() *cobra.Command {
	var deviceID string
	cmd := &cobra.Command{
		Use:   "send <action>",
		Short: "Connect, send one command and disconnect",
		Long:  "Actions: " + actionNames(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := protocol.ParseAction(args[0])
			if err != nil {
				return err
			}
			cfg, closer, err := setup(false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext()
			defer cancel()

			link := newLink(cfg)
			defer link.Close()

			devices, err := link.Discover(ctx)
			if err != nil {
				return err
			}
			target, err := pickDevice(devices, deviceID)
			if err != nil {
				return err
			}

			connectCtx, connectCancel := context.WithTimeout(ctx, cfg.BLE.ConnectTimeout)
			defer connectCancel()
			if _, err := link.Connect(connectCtx, target); err != nil {
				return err
			}
			if err := link.SendCommand(ctx, action.Opcode()); err != nil {
				return err
			}
			fmt.Printf("Sent %s (%s) to %s\n", action, action.Opcode(), target.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceID, "device", "", "device ID to use (default: the only one found)")
	return cmd
}

// pickDevice returns the device with id, or the only device found.
func pickDevice(devices []ble.Peripheral, id string) (ble.Peripheral, error) {
	if id != "" {
		for _, p := range devices {
			if p.ID == id {
				return p, nil
			}
		}
		return ble.Peripheral{}, fmt.Errorf("%s: %w", id, ble.ErrUnknownDevice)
	}
	switch len(devices) {
	case 0:
		return ble.Peripheral{}, errors.New("no scoreboard found")
	case 1:
		return devices[0], nil
	default:
		return ble.Peripheral{}, fmt.Errorf("%d scoreboards found, choose one with --device", len(devices))
	}
}

func actionNames() string {
	var names []string
	for _, a := range protocol.Actions() {
		names = append(names, a.String())
	}
	return strings.Join(names, ", ")
}

func loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(false)
			if err != nil {
				return err
			}
			defer closer.Close()

			addr, password, err := credentials(email)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			user, err := newAPI(cfg).Login(ctx, addr, password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

// credentials fills in whatever the flags and PLACAR_PASSWORD left out.
func credentials(email string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = askString("Email"); err != nil {
			return "", "", err
		}
	}
	password := os.Getenv("PLACAR_PASSWORD")
	if password == "" {
		if password, err = askPassword("Password"); err != nil {
			return "", "", err
		}
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return email, password, nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(false)
			if err != nil {
				return err
			}
			defer closer.Close()
			if err := newAPI(cfg).Logout(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func gamesCmd() *cobra.Command {
	var history int64
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List games, or the saved scores of one game",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext()
			defer cancel()
			api := newAPI(cfg)

			if history != 0 {
				return printHistory(ctx, api, history)
			}

			games, err := api.ListGames(ctx)
			if err != nil {
				return loginHint(err)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGAME\tMATCH\tDATE")
			for _, g := range games {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", g.ID, g.Name, g.Label(), g.Date.Local().Format("02/01/2006 15:04"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&history, "scores", 0, "show the latest saved score per period for this game ID")
	return cmd
}

func printHistory(ctx context.Context, api *backend.Client, gameID int64) error {
	recs, err := api.ScoresForGame(ctx, gameID)
	if err != nil {
		return loginHint(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tPOINTS\tFOULS\tTIMEOUTS")
	for _, r := range backend.LatestPerPeriod(recs) {
		label := fmt.Sprintf("%d", r.Period)
		if r.Period >= 1 && r.Period <= len(scoreboard.Periods) {
			label = scoreboard.Periods[r.Period-1]
		}
		fmt.Fprintf(w, "%s\t%d x %d\t%d x %d\t%d x %d\n", label,
			r.PointsA, r.PointsB, r.FoulsA, r.FoulsB, r.TimeoutsA, r.TimeoutsB)
	}
	return w.Flush()
}

func loginHint(err error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		return fmt.Errorf("%w (run 'placar login')", err)
	}
	return err
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Printf("Config already exists at %s\n", config.DefaultConfigPath())
				return nil
			}
			fmt.Printf("Wrote %s\n", path)
			printBanner(config.Default())
			return nil
		},
	}
}
