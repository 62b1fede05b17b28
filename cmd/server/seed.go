package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"promisetracker/internal/access"
	"promisetracker/internal/app"
	cmodels "promisetracker/internal/classifiers/models"
	"promisetracker/internal/platform/metrics"
	umodels "promisetracker/internal/users/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedParty struct {
	Name        string `yaml:"name"`
	Established string `yaml:"established"`
	Liquidated  string `yaml:"liquidated"`
}

type seedConvocation struct {
	Name    string   `yaml:"name"`
	Start   string   `yaml:"start"`
	End     string   `yaml:"end"`
	Parties []string `yaml:"parties"`
}

type seedData struct {
	Parties      []seedParty       `yaml:"parties"`
	Convocations []seedConvocation `yaml:"convocations"`
}

// codeCapture records verification codes so the seeded administrator can be
// verified without a mailbox.
type codeCapture struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeCapture) SendVerificationEmail(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

func (c *codeCapture) code(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type seedOptions struct {
	file          string
	adminEmail    string
	adminUsername string
	adminPassword string
}

func seedCommand(root *rootOptions) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a verified administrator and reference parties and convocations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			data, err := loadSeed(opts.file)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := connect(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			capture := &codeCapture{codes: map[string]string{}}
			rt.dispatcher = capture
			appOpts, err := appOptions(cfg, rt, logger, metrics.NewWithRegistry(nil))
			if err != nil {
				return err
			}
			a := app.New(rt.backend, appOpts)
			defer a.Close()

			return runSeed(ctx, cmd, a, capture, opts, data)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "YAML seed file (defaults to the built-in data set)")
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "admin@example.com", "administrator email")
	cmd.Flags().StringVar(&opts.adminUsername, "admin-username", "admin", "administrator username")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "", "administrator password")
	_ = cmd.MarkFlagRequired("admin-password")
	return cmd
}

func loadSeed(path string) (*seedData, error) {
	raw := defaultSeed
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = buf
	}
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}

func runSeed(ctx context.Context, cmd *cobra.Command, a *app.App, capture *codeCapture, opts *seedOptions, data *seedData) error {
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	system := access.Administrator(id.UserID{}, true)
	admin, err := a.Users.Create(ctx, system, umodels.CreateUserInput{
		Name:            "Site",
		Surname:         "Administrator",
		Email:           opts.adminEmail,
		Username:        opts.adminUsername,
		Password:        opts.adminPassword,
		PasswordConfirm: opts.adminPassword,
		IsAdmin:         true,
	})
	if err != nil {
		if de, isDomain := dErrors.As(err); isDomain && de.Code == dErrors.CodeApplication {
			fmt.Fprintf(out, "%s administrator not created: %s\n", warn("skip"), de.Message)
			return nil
		}
		return err
	}
	self := access.Administrator(admin.ID, false)
	if err := a.Users.Verify(ctx, self, admin.ID, capture.code(admin.Email)); err != nil {
		return fmt.Errorf("verify administrator: %w", err)
	}
	fmt.Fprintf(out, "%s administrator %s (%s)\n", ok("created"), admin.Username, admin.ID)

	actor := access.Administrator(admin.ID, true)
	parties := make(map[string]id.PartyID, len(data.Parties))
	for _, p := range data.Parties {
		in, err := p.input()
		if err != nil {
			return err
		}
		party, err := a.Classifiers.CreateParty(ctx, actor, in)
		if err != nil {
			return fmt.Errorf("create party %q: %w", p.Name, err)
		}
		parties[party.Name] = party.ID
		fmt.Fprintf(out, "%s party %s\n", ok("created"), party.Name)
	}
	for _, c := range data.Convocations {
		in, err := c.input(parties)
		if err != nil {
			return err
		}
		convocation, err := a.Classifiers.CreateConvocation(ctx, actor, in)
		if err != nil {
			return fmt.Errorf("create convocation %q: %w", c.Name, err)
		}
		fmt.Fprintf(out, "%s convocation %s with %d parties\n", ok("created"), convocation.Name, len(convocation.PartyIDs))
	}
	return nil
}

func (p seedParty) input() (cmodels.PartyInput, error) {
	established, err := id.ParseDate(p.Established)
	if err != nil {
		return cmodels.PartyInput{}, fmt.Errorf("party %q: %w", p.Name, err)
	}
	liquidated, err := id.ParseOptionalDate(p.Liquidated)
	if err != nil {
		return cmodels.PartyInput{}, fmt.Errorf("party %q: %w", p.Name, err)
	}
	return cmodels.PartyInput{Name: p.Name, EstablishedDate: established, LiquidatedDate: liquidated}, nil
}

func (c seedConvocation) input(parties map[string]id.PartyID) (cmodels.ConvocationInput, error) {
	start, err := id.ParseDate(c.Start)
	if err != nil {
		return cmodels.ConvocationInput{}, fmt.Errorf("convocation %q: %w", c.Name, err)
	}
	end, err := id.ParseOptionalDate(c.End)
	if err != nil {
		return cmodels.ConvocationInput{}, fmt.Errorf("convocation %q: %w", c.Name, err)
	}
	in := cmodels.ConvocationInput{Name: c.Name, StartDate: start, EndDate: end}
	for _, name := range c.Parties {
		partyID, found := parties[name]
		if !found {
			return cmodels.ConvocationInput{}, fmt.Errorf("convocation %q: unknown party %q", c.Name, name)
		}
		in.PartyIDs = append(in.PartyIDs, partyID)
	}
	return in, nil
}
