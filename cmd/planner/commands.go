package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary/internal/domain"
	"github.com/pkordes/itinerary/internal/geo"
	"github.com/pkordes/itinerary/internal/planner"
)

const dateLayout = "2006-01-02"

// deps carries what commands need from the outside world, so tests can swap
// the API for a fake.
type deps struct {
	stdout io.Writer
	stderr io.Writer
	source planner.TripSource
	opts   []planner.Option
}

type command struct {
	summary string
	run     func(ctx context.Context, args []string, d deps) error
}

var commands = map[string]command{
	"new":           {"create an empty trip", runNew},
	"show":          {"print a trip with its activities, housing and cost", runShow},
	"add-place":     {"add a place (a locality becomes a destination)", runAddPlace},
	"remove-place":  {"remove a place from the trip", runRemovePlace},
	"nearest":       {"print the destination nearest to a point", runNearest},
	"set-housing":   {"set the housing of a destination", runSetHousing},
	"add-transport": {"add a transportation leg", runAddTransport},
}

var errUsage = errors.New("usage")

// dispatch runs the command named by args[0].
func dispatch(ctx context.Context, args []string, d deps) error {
	if len(args) == 0 {
		usage(d.stderr)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(d.stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(ctx, args[1:], d)
}

func usage(w io.Writer) {
	fmt.Fprint(w, "Usage: planner <command> [flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprint(w, "\nRun 'planner <command> -h' for the flags of a command.\n")
}

func newFlagSet(name string, d deps) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(d.stderr)
	return fs
}

// session opens a store on the trip named by tripFlag. The caller must Close it.
func session(ctx context.Context, tripFlag string, d deps) (*planner.Store, error) {
	id, err := uuid.Parse(tripFlag)
	if err != nil {
		return nil, fmt.Errorf("-trip: %w", err)
	}
	opts := append([]planner.Option{planner.WithFlushOnClose()}, d.opts...)
	store := planner.New(d.source, opts...)
	src, err := store.Load(ctx, id)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	if src == planner.SourceCache {
		fmt.Fprintln(d.stderr, "warning: API unreachable, showing cached copy")
	}
	return store, nil
}

// finish closes the store, which sends any pending save. The command error
// wins over the save error.
func finish(ctx context.Context, store *planner.Store, err error) error {
	closeErr := store.Close(ctx)
	if err != nil {
		return err
	}
	return closeErr
}

func runNew(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("new", d)
	name := fs.String("name", "", "trip name (required)")
	start := fs.String("start", "", "start date, YYYY-MM-DD")
	end := fs.String("end", "", "end date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("-name is required")
	}

	trip := domain.Trip{
		ID:              uuid.New(),
		Name:            *name,
		Destinations:    []domain.Destination{},
		Transportations: []domain.Transportation{},
	}
	var err error
	if trip.StartDate, err = parseDate("start", *start); err != nil {
		return err
	}
	if trip.EndDate, err = parseDate("end", *end); err != nil {
		return err
	}

	if err := d.source.Save(ctx, trip); err != nil {
		return err
	}
	fmt.Fprintln(d.stdout, trip.ID)
	return nil
}

func runShow(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("show", d)
	tripID := fs.String("trip", "", "trip id (required)")
	asJSON := fs.Bool("json", false, "print the trip document as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := session(ctx, *tripID, d)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	trip, err := store.Trip()
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(d.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trip)
	}
	printTrip(d.stdout, store, trip)
	return nil
}

func runAddPlace(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("add-place", d)
	tripID := fs.String("trip", "", "trip id (required)")
	place := placeFlags(fs)
	categories := fs.String("categories", "", "comma-separated categories; include \"locality\" for a city or town")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mp, err := place.mapPlace(*categories)
	if err != nil {
		return err
	}

	store, err := session(ctx, *tripID, d)
	if err != nil {
		return err
	}
	placed, err := store.AddPlace(mp)
	if err == nil {
		fmt.Fprintf(d.stdout, "added %s %q to destination %s\n", placed.Kind, mp.Name, placed.DestinationID)
	}
	return finish(ctx, store, err)
}

func runRemovePlace(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("remove-place", d)
	tripID := fs.String("trip", "", "trip id (required)")
	placeID := fs.String("place-id", "", "place id (required)")
	locality := fs.Bool("locality", false, "remove the destination created from this place")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *placeID == "" {
		return errors.New("-place-id is required")
	}
	mp := domain.MapPlace{Place: domain.Place{ID: *placeID}}
	if *locality {
		mp.Categories = []string{domain.LocalityCategory}
	}

	store, err := session(ctx, *tripID, d)
	if err != nil {
		return err
	}
	err = store.RemovePlace(mp)
	if err == nil {
		fmt.Fprintf(d.stdout, "removed %s\n", *placeID)
	}
	return finish(ctx, store, err)
}

func runNearest(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("nearest", d)
	tripID := fs.String("trip", "", "trip id (required)")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := session(ctx, *tripID, d)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	at := domain.Coordinates{Lat: *lat, Lng: *lng}
	dest, err := store.NearestDestination(domain.Place{Coordinates: at})
	if err != nil {
		return err
	}
	fmt.Fprintf(d.stdout, "%s\t%s\t%.1f km\n", dest.ID, dest.Name, geo.DistanceMeters(at, dest.Coordinates)/1000)
	return nil
}

func runSetHousing(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("set-housing", d)
	tripID := fs.String("trip", "", "trip id (required)")
	destID := fs.String("dest", "", "destination id (required)")
	place := placeFlags(fs)
	checkIn := fs.String("checkin", "", "check-in date or time")
	checkOut := fs.String("checkout", "", "check-out date or time")
	price := fs.Float64("price", -1, "price; negative means unknown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	did, err := uuid.Parse(*destID)
	if err != nil {
		return fmt.Errorf("-dest: %w", err)
	}
	h := domain.Housing{Place: place.place(), Name: place.name, CheckIn: *checkIn, CheckOut: *checkOut}
	if *price >= 0 {
		h.Price = price
	}

	store, err := session(ctx, *tripID, d)
	if err != nil {
		return err
	}
	h, err = store.SetHousing(did, h)
	if err == nil {
		fmt.Fprintf(d.stdout, "housing %s set\n", h.ID)
	}
	return finish(ctx, store, err)
}

func runAddTransport(ctx context.Context, args []string, d deps) error {
	fs := newFlagSet("add-transport", d)
	tripID := fs.String("trip", "", "trip id (required)")
	kind := fs.String("type", "", "Bus, Car, Plane, Ship or Train (required)")
	origin := fs.String("from", "", "origin")
	dest := fs.String("to", "", "destination")
	carrier := fs.String("carrier", "", "carrier")
	price := fs.Float64("price", -1, "price; negative means unknown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tr := domain.Transportation{
		Origin:      *origin,
		Destination: *dest,
		Type:        domain.TransportType(*kind),
		Carrier:     *carrier,
	}
	if *price >= 0 {
		tr.Price = price
	}

	store, err := session(ctx, *tripID, d)
	if err != nil {
		return err
	}
	tr, err = store.AddTransportation(tr)
	if err == nil {
		fmt.Fprintf(d.stdout, "transportation %s added\n", tr.ID)
	}
	return finish(ctx, store, err)
}

// placeArgs are the flags shared by commands that take a place.
type placeArgs struct {
	id, name, address string
	lat, lng          float64
}

func placeFlags(fs *flag.FlagSet) *placeArgs {
	p := &placeArgs{}
	fs.StringVar(&p.id, "place-id", "", "place id (required)")
	fs.StringVar(&p.name, "name", "", "place name")
	fs.StringVar(&p.address, "address", "", "place address")
	fs.Float64Var(&p.lat, "lat", 0, "latitude")
	fs.Float64Var(&p.lng, "lng", 0, "longitude")
	return p
}

func (p *placeArgs) place() domain.Place {
	return domain.Place{
		ID:          p.id,
		Name:        p.name,
		Address:     p.address,
		Coordinates: domain.Coordinates{Lat: p.lat, Lng: p.lng},
	}
}

func (p *placeArgs) mapPlace(categories string) (domain.MapPlace, error) {
	if p.id == "" {
		return domain.MapPlace{}, errors.New("-place-id is required")
	}
	mp := domain.MapPlace{Place: p.place()}
	for _, c := range strings.Split(categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			mp.Categories = append(mp.Categories, c)
		}
	}
	return mp, nil
}

func parseDate(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return &t, nil
}

func printTrip(w io.Writer, store *planner.Store, trip domain.Trip) {
	fmt.Fprintf(w, "%s (%s)  %s\n", trip.Name, trip.ID, dateRange(trip.StartDate, trip.EndDate))
	for _, dest := range trip.Destinations {
		fmt.Fprintf(w, "\n%s  %s  [%s]\n", dest.Name, dateRange(dest.StartDate, dest.EndDate), dest.ID)
		if h := dest.Housing; h != nil {
			fmt.Fprintf(w, "  housing: %s%s\n", housingName(h), price(h.Price))
		}
		for _, a := range dest.Activities {
			fmt.Fprintf(w, "  - %s%s\n", a.Place.Name, price(a.Price))
		}
	}
	for _, tr := range trip.Transportations {
		fmt.Fprintf(w, "\n%s %s -> %s%s%s\n", tr.Type, tr.Origin, tr.Destination, legLength(tr.Path), price(tr.Price))
	}
	fmt.Fprintf(w, "\n%d activities, %d housings, total %.2f\n",
		len(store.Activities()), len(store.Housing()), store.Cost())
}

func housingName(h *domain.Housing) string {
	if h.Name != "" {
		return h.Name
	}
	return h.Place.Name
}

func dateRange(start, end *time.Time) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "?"
		}
		return t.Format(dateLayout)
	}
	return format(start) + " .. " + format(end)
}

func legLength(path []domain.Coordinates) string {
	if len(path) < 2 {
		return ""
	}
	return fmt.Sprintf("  %.0f km", geo.PathLength(path)/1000)
}

func price(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("  (%.2f)", *p)
}
