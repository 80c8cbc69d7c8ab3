package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/atinyakov/TrailKeeper/internal/catalog"
	"github.com/atinyakov/TrailKeeper/internal/config"
	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/atinyakov/TrailKeeper/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run 'login' first")

// cli carries what the commands share: terminal streams and the core, which
// is built once per process and reused by every shell command.
type cli struct {
	in   io.Reader
	out  io.Writer
	open storeOpener

	app     *app
	inShell bool
}

// offline marks commands that run without the core.
const offline = "offline"

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "trailkeeper",
		Short: "Browse and edit the trail catalog",
		Long: `trailkeeper is a terminal client for the trail catalog service.

Configuration is read from a JSON file (--config or CONFIG), a .env file,
TRAILKEEPER_* environment variables and flags, later sources winning.

Environment Variables:
  TRAILKEEPER_BASE_URL     Catalog service base URL
  TRAILKEEPER_STORE        Credential store: file | postgres | memory
  TRAILKEEPER_PASSPHRASE   Credential store passphrase`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[offline] == "true" || c.app != nil {
				return nil
			}
			opts, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), opts, c.in, c.out, c.open)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil && !c.inShell {
				c.app.Close()
				c.app = nil
			}
		},
	}
	config.Bind(root.PersistentFlags())
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.out)

	root.AddCommand(newCommands(c)...)
	root.AddCommand(newShellCmd(c), newVersionCmd(c))
	return root
}

// newCommands returns the commands available both from the command line and
// inside the shell.
func newCommands(c *cli) []*cobra.Command {
	create := &cobra.Command{Use: "create", Short: "Create a hike, route or point"}
	create.AddCommand(
		&cobra.Command{Use: "hike", Short: "Create a hike", Args: cobra.NoArgs, RunE: c.createHike},
		&cobra.Command{Use: "route <hikeId>", Short: "Add a route to a hike", Args: cobra.ExactArgs(1), RunE: c.createRoute},
		&cobra.Command{Use: "point <routeId>", Short: "Add a point to a route", Args: cobra.ExactArgs(1), RunE: c.createPoint},
	)

	update := &cobra.Command{Use: "update", Short: "Edit a hike, route or point"}
	update.AddCommand(
		&cobra.Command{Use: "hike <hikeId>", Short: "Edit a hike", Args: cobra.ExactArgs(1), RunE: c.updateHike},
		&cobra.Command{Use: "route <hikeId> <routeId>", Short: "Edit a route", Args: cobra.ExactArgs(2), RunE: c.updateRoute},
		&cobra.Command{Use: "point <hikeId> <routeId> <pointId>", Short: "Edit a point", Args: cobra.ExactArgs(3), RunE: c.updatePoint},
	)

	del := &cobra.Command{Use: "delete", Short: "Delete a hike, route or point"}
	del.PersistentFlags().BoolP("yes", "y", false, "do not ask for confirmation")
	del.AddCommand(
		&cobra.Command{Use: "hike <hikeId>", Short: "Delete a hike and everything on it", Args: cobra.ExactArgs(1), RunE: c.deleteHike},
		&cobra.Command{Use: "route <routeId>", Short: "Delete a route", Args: cobra.ExactArgs(1), RunE: c.deleteRoute},
		&cobra.Command{Use: "point <pointId>", Short: "Delete a point", Args: cobra.ExactArgs(1), RunE: c.deletePoint},
	)

	return []*cobra.Command{
		{Use: "login", Short: "Sign in with email and password", Args: cobra.NoArgs, RunE: c.login},
		{Use: "register", Short: "Create an account and sign in", Args: cobra.NoArgs, RunE: c.register},
		{Use: "logout", Short: "Sign out and forget the stored tokens", Args: cobra.NoArgs, RunE: c.logout},
		{Use: "refresh", Short: "Exchange the token pair for a new one", Args: cobra.NoArgs, RunE: c.refresh},
		{Use: "whoami", Short: "Show the signed-in account", Args: cobra.NoArgs, RunE: c.whoami},
		{Use: "status", Short: "Show the session state", Args: cobra.NoArgs, RunE: c.status},
		{Use: "hikes", Short: "List all hikes", Args: cobra.NoArgs, RunE: c.hikes},
		{Use: "my-hikes", Short: "List the hikes you created", Args: cobra.NoArgs, RunE: c.myHikes},
		{Use: "hike <hikeId>", Short: "Show a hike and its routes", Args: cobra.ExactArgs(1), RunE: c.hike},
		{Use: "route <hikeId> <routeId>", Short: "Show a route and its points", Args: cobra.ExactArgs(2), RunE: c.route},
		{Use: "metrics", Short: "Print client metrics", Args: cobra.NoArgs, RunE: c.metrics},
		create, update, del,
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show build version and date",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.out, "TrailKeeper Client\nVersion: %s\nBuild Date: %s\n", orNA(version), orNA(buildDate))
		},
	}
}

func (c *cli) login(cmd *cobra.Command, _ []string) error {
	email, password, err := c.app.prompt.Credentials()
	if err != nil {
		return err
	}
	if err := models.ValidateLogin(email, password); err != nil {
		return err
	}
	return c.app.sess.Login(cmd.Context(), email, password)
}

func (c *cli) register(cmd *cobra.Command, _ []string) error {
	email, userName, password, err := c.app.prompt.Registration()
	if err != nil {
		return err
	}
	if err := models.ValidateRegistration(email, password, userName); err != nil {
		return err
	}
	return c.app.sess.Register(cmd.Context(), email, password, userName)
}

func (c *cli) logout(cmd *cobra.Command, _ []string) error {
	if !c.app.sess.IsLoggedIn() {
		fmt.Fprintln(c.out, "Not signed in.")
		return nil
	}
	c.app.sess.Logout(cmd.Context())
	return nil
}

func (c *cli) refresh(cmd *cobra.Command, _ []string) error {
	if !c.app.sess.IsLoggedIn() {
		return errNotSignedIn
	}
	if err := c.app.sess.Refresh(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Tokens refreshed.")
	return nil
}

func (c *cli) whoami(cmd *cobra.Command, _ []string) error {
	u, err := c.app.sess.CurrentUser(cmd.Context())
	if errors.Is(err, session.ErrNotAuthenticated) {
		return errNotSignedIn
	}
	if err != nil {
		return err
	}
	printUser(c.out, u)
	return nil
}

// status reports the session without calling the server. The access token
// is decoded, not verified, to show when it expires.
func (c *cli) status(*cobra.Command, []string) error {
	a := c.app
	fmt.Fprintf(c.out, "Server: %s\nSession: %s\n", a.client.BaseURL(), a.sess.State())
	token := a.sess.Tokens().AccessToken
	if token == "" {
		return nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		fmt.Fprintln(c.out, "Access token: opaque")
		return nil
	}
	if claims.ExpiresAt == nil {
		fmt.Fprintln(c.out, "Access token: no expiry")
		return nil
	}
	exp := claims.ExpiresAt.Time
	if left := time.Until(exp); left > 0 {
		fmt.Fprintf(c.out, "Access token expires: %s (in %s)\n", exp.Format(time.RFC3339), left.Round(time.Second))
	} else {
		fmt.Fprintf(c.out, "Access token expired: %s, it is refreshed on the next call\n", exp.Format(time.RFC3339))
	}
	return nil
}

func (c *cli) hikes(cmd *cobra.Command, _ []string) error {
	hikes, err := fetch(cmd.Context(), c.app.cat.Hikes())
	if err != nil {
		return err
	}
	printHikes(c.out, hikes)
	return nil
}

func (c *cli) myHikes(cmd *cobra.Command, _ []string) error {
	hikes, err := fetch(cmd.Context(), c.app.cat.CreatorHikes())
	if err != nil {
		return err
	}
	printHikes(c.out, hikes)
	return nil
}

func (c *cli) hike(cmd *cobra.Command, args []string) error {
	h, err := fetch(cmd.Context(), c.app.cat.HikeWithRoutes(args[0]))
	if err != nil {
		return err
	}
	printHike(c.out, h)
	c.app.nav.Push("hike:" + args[0])
	return nil
}

func (c *cli) route(cmd *cobra.Command, args []string) error {
	r, err := fetch(cmd.Context(), c.app.cat.RouteWithPoints(args[0], args[1]))
	if err != nil {
		return err
	}
	printRoute(c.out, r)
	c.app.nav.Push("route:" + args[1])
	return nil
}

func (c *cli) metrics(*cobra.Command, []string) error {
	return writeMetrics(c.out, c.app.reg)
}

func (c *cli) createHike(cmd *cobra.Command, _ []string) error {
	req, err := c.app.prompt.Hike(models.HikeRequest{})
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	h, err := c.app.mut.CreateHike(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created hike %s.\n", h.ID)
	return nil
}

func (c *cli) updateHike(cmd *cobra.Command, args []string) error {
	cur, err := fetch(cmd.Context(), c.app.cat.HikeWithRoutes(args[0]))
	if err != nil {
		return err
	}
	req, err := c.app.prompt.Hike(hikeRequest(cur.Hike))
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := c.app.mut.UpdateHike(cmd.Context(), args[0], req); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated hike %s.\n", args[0])
	return nil
}

func (c *cli) deleteHike(cmd *cobra.Command, args []string) error {
	if ok, err := c.confirm(cmd, "Delete hike "+args[0]+" with all its routes and points?"); !ok || err != nil {
		return err
	}
	h, err := c.app.mut.DeleteHike(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted hike %s.\n", h.ID)
	return nil
}

func (c *cli) createRoute(cmd *cobra.Command, args []string) error {
	req, err := c.app.prompt.Route(models.RouteRequest{HikeID: args[0]})
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	r, err := c.app.mut.CreateRoute(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created route %s.\n", r.ID)
	return nil
}

func (c *cli) updateRoute(cmd *cobra.Command, args []string) error {
	cur, err := fetch(cmd.Context(), c.app.cat.RouteWithPoints(args[0], args[1]))
	if err != nil {
		return err
	}
	req, err := c.app.prompt.Route(routeRequest(cur.Route))
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := c.app.mut.UpdateRoute(cmd.Context(), args[1], req); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated route %s.\n", args[1])
	return nil
}

func (c *cli) deleteRoute(cmd *cobra.Command, args []string) error {
	if ok, err := c.confirm(cmd, "Delete route "+args[0]+" with all its points?"); !ok || err != nil {
		return err
	}
	r, err := c.app.mut.DeleteRoute(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted route %s.\n", r.ID)
	return nil
}

func (c *cli) createPoint(cmd *cobra.Command, args []string) error {
	req, err := c.app.prompt.Point(models.PointRequest{RouteID: args[0]})
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	p, err := c.app.mut.CreatePoint(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created point %s.\n", p.ID)
	return nil
}

func (c *cli) updatePoint(cmd *cobra.Command, args []string) error {
	route, err := fetch(cmd.Context(), c.app.cat.RouteWithPoints(args[0], args[1]))
	if err != nil {
		return err
	}
	var cur *models.Point
	for i := range route.Points {
		if route.Points[i].ID == args[2] {
			cur = &route.Points[i]
			break
		}
	}
	if cur == nil {
		return fmt.Errorf("route %s has no point %s", args[1], args[2])
	}
	req, err := c.app.prompt.Point(pointRequest(*cur))
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := c.app.mut.UpdatePoint(cmd.Context(), args[2], req); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated point %s.\n", args[2])
	return nil
}

func (c *cli) deletePoint(cmd *cobra.Command, args []string) error {
	if ok, err := c.confirm(cmd, "Delete point "+args[0]+"?"); !ok || err != nil {
		return err
	}
	p, err := c.app.mut.DeletePoint(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted point %s.\n", p.ID)
	return nil
}

// confirm asks before a delete unless --yes was given.
func (c *cli) confirm(cmd *cobra.Command, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	ok, err := c.app.prompt.Bool(question, false)
	if err == nil && !ok {
		fmt.Fprintln(c.out, "Cancelled.")
	}
	return ok, err
}

// fetch loads q. A disabled query means there is no session.
func fetch[T any](ctx context.Context, q catalog.Query[T]) (T, error) {
	var zero T
	if !q.Enabled() {
		return zero, errNotSignedIn
	}
	res := q.Fetch(ctx)
	if res.Err != nil {
		return zero, res.Err
	}
	return res.Data, nil
}

func hikeRequest(h models.Hike) models.HikeRequest {
	return models.HikeRequest{
		Name:                   h.Name,
		Description:            h.Description,
		DifficultyLevel:        h.DifficultyLevel,
		TotalDistance:          h.TotalDistance,
		TotalDurationInMinutes: h.TotalDurationInMinutes,
		TotalElevationGain:     h.TotalElevationGain,
		Seasonality:            h.Seasonality,
		TerrainType:            h.TerrainType,
		SuitableForBeginners:   h.SuitableForBeginners,
		Accessibility:          h.Accessibility,
	}
}

func routeRequest(r models.Route) models.RouteRequest {
	return models.RouteRequest{
		OrderInHike:       r.OrderInHike,
		Description:       r.Description,
		Distance:          r.Distance,
		DurationInMinutes: r.DurationInMinutes,
		ElevationChange:   r.ElevationChange,
		NavigationNotes:   r.NavigationNotes,
		TerrainType:       r.TerrainType,
		SurfaceType:       r.SurfaceType,
		HikeID:            r.HikeID,
	}
}

func pointRequest(p models.Point) models.PointRequest {
	return models.PointRequest{
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		Altitude:           p.Altitude,
		Feature:            p.Feature,
		FeatureDescription: p.FeatureDescription,
		PointType:          p.PointType,
		Image:              p.Image,
		OrderInRoute:       p.OrderInRoute,
		RouteID:            p.RouteID,
	}
}
