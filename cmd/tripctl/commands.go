package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"wayfarer/internal/auth"
	"wayfarer/internal/buildinfo"
	"wayfarer/internal/config"
	"wayfarer/internal/itinerary"
	"wayfarer/internal/model"
	"wayfarer/internal/remote"
	"wayfarer/internal/summary"
)

var errUsage = errors.New("usage: tripctl [-api URL] [-token T] [-user N] list|summary|route|create|delete|add-activity|watch|version")

type cli struct {
	client *remote.Client
	ops    *itinerary.Operations
	user   int
	now    func() time.Time
	out    io.Writer
	logger *log.Logger
}

func parseGlobal(args []string, stderr io.Writer) (*cli, []string, error) {
	// TRIPCTL_CONFIG names an optional YAML file; .env and env vars apply on top
	cfg, err := config.Read(os.Getenv("TRIPCTL_CONFIG"))
	if err != nil {
		return nil, nil, err
	}
	fs := flag.NewFlagSet("tripctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	base := fs.String("api", cfg.APIBaseURL, "itinerary service base URL (env API_BASE_URL)")
	token := fs.String("token", os.Getenv("TRIPCTL_TOKEN"), "bearer token (env TRIPCTL_TOKEN)")
	user := fs.Int("user", envInt("TRIPCTL_USER"), "user id (env TRIPCTL_USER)")
	timeout := fs.Duration("timeout", cfg.ClientTimeout, "per-request timeout (env CLIENT_TIMEOUT)")
	rps := fs.Float64("rps", cfg.ClientRPS, "max requests per second, 0 for unlimited (env CLIENT_RPS)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	opts := []remote.Option{remote.WithTimeout(*timeout), remote.WithRateLimit(*rps, cfg.ClientBurst)}
	if *token != "" {
		opts = append(opts, remote.WithToken(*token))
	}
	c := remote.New(*base, opts...)
	ops := itinerary.NewOperations(itinerary.NewStore(), c)
	return &cli{client: c, ops: ops, user: *user, now: time.Now}, fs.Args(), nil
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}

func (c *cli) requireUser() error {
	if c.user <= 0 {
		return errors.New("a user id is required (-user or TRIPCTL_USER)")
	}
	return nil
}

var commands = map[string]func(context.Context, *cli, []string) error{
	"list":         cmdList,
	"summary":      cmdSummary,
	"route":        cmdRoute,
	"create":       cmdCreate,
	"delete":       cmdDelete,
	"add-activity": cmdAddActivity,
	"watch":        cmdWatch,
	"version": func(_ context.Context, c *cli, _ []string) error {
		fmt.Fprintln(c.out, buildinfo.String())
		return nil
	},
}

func cmdList(ctx context.Context, c *cli, _ []string) error {
	if err := c.requireUser(); err != nil {
		return err
	}
	list, err := c.ops.FetchForSession(ctx, auth.ForUser(c.user))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tDESTINATIONS")
	for _, it := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", it.ID, it.Name, it.StartDate, it.EndDate, len(it.Destinations))
	}
	return tw.Flush()
}

func cmdSummary(ctx context.Context, c *cli, _ []string) error {
	if err := c.requireUser(); err != nil {
		return err
	}
	list, err := c.ops.FetchAll(ctx, c.user)
	if err != nil {
		return err
	}
	s := summary.Compute(list, c.now())
	fmt.Fprintf(c.out, "Total trips:       %d\n", s.TotalTrips)
	fmt.Fprintf(c.out, "Upcoming trips:    %d\n", len(s.UpcomingTrips))
	fmt.Fprintf(c.out, "Completed trips:   %d\n", s.CompletedTrips)
	fmt.Fprintf(c.out, "Total travel days: %d\n", s.TotalTravelDaysRounded())
	fmt.Fprintf(c.out, "Total distance:    %s\n", summary.FormatKm(summary.TotalKm(list), 0))
	for _, t := range s.UpcomingTrips {
		fmt.Fprintf(c.out, "  %s  %s  %d day(s)\n", t.StartDate, t.Name, t.DurationDays)
	}
	return nil
}

func cmdRoute(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tripctl route <itinerary-id>")
	}
	it, err := c.client.Get(ctx, args[0])
	if err != nil {
		return err
	}
	r := summary.RouteView(it)
	for _, leg := range r.Legs {
		fmt.Fprintf(c.out, "%s -> %s  %s\n", leg.From, leg.To, summary.FormatKm(leg.Km, 1))
	}
	fmt.Fprintf(c.out, "Total: %s\n", summary.FormatKm(r.TotalKm, 1))
	if len(r.Missing) > 0 {
		fmt.Fprintf(c.out, "Without coordinates: %s\n", strings.Join(r.Missing, ", "))
	}
	return nil
}

func cmdCreate(ctx context.Context, c *cli, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	file := fs.String("f", "", "YAML file describing the itinerary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("usage: tripctl create -f trip.yaml")
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var in model.NewItinerary
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse %s: %w", *file, err)
	}
	if in.UserID == 0 {
		in.UserID = c.user
	}
	d := itinerary.NewDraft()
	d.Name, d.StartDate, d.EndDate, d.Description = in.Name, in.StartDate, in.EndDate, in.Description
	d.Destinations = in.Destinations
	created, err := c.ops.SaveDraft(ctx, auth.ForUser(in.UserID), d)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, created.ID)
	return nil
}

func cmdDelete(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tripctl delete <itinerary-id>")
	}
	return c.ops.Delete(ctx, args[0])
}

func cmdAddActivity(ctx context.Context, c *cli, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: tripctl add-activity <itinerary-id> <destination-id> <type> <name> [description]")
	}
	typ, err := model.ParseActivityType(args[2])
	if err != nil {
		return err
	}
	it, err := c.client.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if !hasDestination(it, args[1]) {
		return fmt.Errorf("itinerary %s has no destination %s", it.ID, args[1])
	}
	// the collection must be loaded before local edits apply to it
	if _, err := c.ops.FetchAll(ctx, it.UserID); err != nil {
		return err
	}
	desc := ""
	if len(args) > 4 {
		desc = strings.Join(args[4:], " ")
	}
	a := model.NewActivity(args[3], typ, desc)
	c.ops.AddActivity(it.ID, args[1], a)
	edited, ok := c.ops.Store.Find(it.ID)
	if !ok {
		return fmt.Errorf("itinerary %s not found for user %d", it.ID, it.UserID)
	}
	if _, err := c.ops.Update(ctx, edited); err != nil {
		return err
	}
	fmt.Fprintln(c.out, a.ID)
	return nil
}

func cmdWatch(ctx context.Context, c *cli, _ []string) error {
	if err := c.requireUser(); err != nil {
		return err
	}
	c.logger.Printf("watching changes for user %d", c.user)
	err := c.client.Watch(ctx, c.user, func(ev model.Event) {
		fmt.Fprintf(c.out, "%s %s %s\n", ev.At.Format(time.RFC3339), ev.Type, ev.ItineraryID)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func hasDestination(it model.Itinerary, id string) bool {
	for _, d := range it.Destinations {
		if d.ID == id {
			return true
		}
	}
	return false
}
