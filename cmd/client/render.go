package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/atinyakov/TrailKeeper/internal/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

func printHikes(w io.Writer, hikes []models.Hike) {
	if len(hikes) == 0 {
		fmt.Fprintln(w, "No hikes.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIFFICULTY\tDISTANCE\tDURATION\tSEASON")
	for _, h := range hikes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f km\t%.0f min\t%s\n",
			h.ID, h.Name, h.DifficultyLevel, h.TotalDistance, h.TotalDurationInMinutes, h.Seasonality)
	}
	_ = tw.Flush()
}

func printHike(w io.Writer, h *models.HikeWithRoutes) {
	fmt.Fprintf(w, "%s (%s)\n", h.Name, h.ID)
	if h.Description != "" {
		fmt.Fprintln(w, h.Description)
	}
	fmt.Fprintf(w, "Difficulty: %s  Terrain: %s  Season: %s  Accessibility: %s  Beginners: %t\n",
		h.DifficultyLevel, h.TerrainType, h.Seasonality, h.Accessibility, h.SuitableForBeginners)
	fmt.Fprintf(w, "Distance: %.1f km  Duration: %.0f min  Elevation gain: %.0f m\n",
		h.TotalDistance, h.TotalDurationInMinutes, h.TotalElevationGain)

	if len(h.Routes) == 0 {
		fmt.Fprintln(w, "No routes.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tROUTE\tTERRAIN\tSURFACE\tDISTANCE\tDESCRIPTION")
	for _, r := range h.Routes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f km\t%s\n",
			r.OrderInHike, r.ID, r.TerrainType, r.SurfaceType, r.Distance, r.Description)
	}
	_ = tw.Flush()
}

func printRoute(w io.Writer, r *models.RouteWithPoints) {
	fmt.Fprintf(w, "Route %s of hike %s\n", r.ID, r.HikeID)
	if r.Description != "" {
		fmt.Fprintln(w, r.Description)
	}
	if r.NavigationNotes != "" {
		fmt.Fprintf(w, "Notes: %s\n", r.NavigationNotes)
	}

	if len(r.Points) == 0 {
		fmt.Fprintln(w, "No points.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPOINT\tTYPE\tFEATURE\tLAT\tLON\tALT")
	for _, p := range r.Points {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.5f\t%.5f\t%.0f m\n",
			p.OrderInRoute, p.ID, p.PointType, p.Feature, p.Latitude, p.Longitude, p.Altitude)
	}
	_ = tw.Flush()
}

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "%s <%s>\nRole: %s\nID: %s\n", u.UserName, u.Email, u.Role, u.ID)
}

// describeError renders err for the terminal. Validation failures list
// every field.
func describeError(err error) string {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for f := range verrs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		var b strings.Builder
		b.WriteString("invalid input:")
		for _, f := range fields {
			fmt.Fprintf(&b, "\n  %s: %s", f, verrs[f])
		}
		return b.String()
	}

	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("server rejected the request (%d): %s", apiErr.StatusCode, apiErr.Message)
	}
	return err.Error()
}

// writeMetrics dumps reg in the Prometheus text format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
