package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/waterwatch/internal/reports"
)

var getMultiline = GetMultiline
var getLines = GetLines

const createdLayout = "2006-01-02 15:04"

// SubmitReport walks through the report form. Contact fields default to the
// logged-in user's profile.
func (a *App) SubmitReport(ctx context.Context) error {
	u, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}

	var r reports.Report
	prompts := []struct {
		dst    *string
		prompt string
		def    string
	}{
		{&r.Submitter.FullName, "Full name", u.FullName},
		{&r.Submitter.Email, "Email", u.Email},
		{&r.Submitter.Phone, "Phone number", u.MobileNumber},
		{&r.Source.Name, "Water source name", ""},
		{&r.Source.Type, "Source type (well, tap, river, lake, borehole, other)", ""},
		{&r.Source.Location, "Location", ""},
		{&r.Source.Coordinates, "Coordinates (optional)", ""},
		{&r.Observations.Appearance, "Water appearance", ""},
		{&r.Observations.Smell, "Water smell", ""},
		{&r.Observations.Taste, "Water taste", ""},
		{&r.Observations.VisibleParticles, "Visible particles", ""},
		{&r.Observations.Flow, "Water flow", ""},
		{&r.Health.General, "General health issues (optional)", ""},
		{&r.Health.Skin, "Skin problems (optional)", ""},
		{&r.Health.Stomach, "Stomach problems (optional)", ""},
	}
	for _, p := range prompts {
		v, err := getWithDefault(a.reader, p.prompt, p.def, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	if r.Notes, err = getMultiline(a.reader, "Additional notes (optional)", a.out); err != nil {
		return err
	}
	if r.Photos, err = getLines(a.reader, "Photo references (optional)", a.out); err != nil {
		return err
	}

	stored, err := a.reports.Submit(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Report submitted: %s\n", stored.ID)
	return nil
}

// ListReports prints all reports, or those with the status given as the
// first argument, newest first.
func (a *App) ListReports(ctx context.Context, args []string) error {
	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	var (
		list []*reports.Report
		err  error
	)
	if len(args) > 0 {
		list, err = a.reports.ListByStatus(ctx, reports.Status(args[0]))
	} else {
		list, err = a.reports.List(ctx)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No reports")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tSOURCE\tLOCATION")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(createdLayout), r.Status, r.Source.Name, r.Source.Location)
	}
	return tw.Flush()
}

// ShowReport prints one report in full.
func (a *App) ShowReport(ctx context.Context, args []string) error {
	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: show <id>")
	}

	r, err := a.reports.Get(ctx, args[0])
	if err != nil {
		return err
	}

	rows := [][2]string{
		{"ID", r.ID},
		{"Status", string(r.Status)},
		{"Date", r.Date},
		{"Submitted by", fmt.Sprintf("%s <%s>, %s", r.Submitter.FullName, r.Submitter.Email, r.Submitter.Phone)},
		{"Source", fmt.Sprintf("%s (%s)", r.Source.Name, r.Source.Type)},
		{"Location", r.Source.Location},
		{"Coordinates", r.Source.Coordinates},
		{"Appearance", r.Observations.Appearance},
		{"Smell", r.Observations.Smell},
		{"Taste", r.Observations.Taste},
		{"Particles", r.Observations.VisibleParticles},
		{"Flow", r.Observations.Flow},
		{"Health", r.Health.General},
		{"Skin", r.Health.Skin},
		{"Stomach", r.Health.Stomach},
		{"Notes", r.Notes},
		{"Photos", strings.Join(r.Photos, ", ")},
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

// SetStatus moves a report to another review status.
func (a *App) SetStatus(ctx context.Context, args []string) error {
	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: status <id> <%s>", joinStatuses("|"))
	}

	st, err := reports.ParseStatus(args[1])
	if err != nil {
		return fmt.Errorf("%w, want one of %s", err, joinStatuses(", "))
	}
	if err := a.reports.UpdateStatus(ctx, args[0], st); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Report %s is now %s\n", args[0], st)
	return nil
}

// DeleteReport removes a report.
func (a *App) DeleteReport(ctx context.Context, args []string) error {
	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	if err := a.reports.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Report deleted")
	return nil
}

// Stats prints the total number of reports and the count per status.
func (a *App) Stats(ctx context.Context) error {
	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	total, err := a.reports.Count(ctx)
	if err != nil {
		return err
	}
	counts, err := a.reports.CountByStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Total: %d\n", total)
	for _, st := range reports.Statuses {
		fmt.Fprintf(a.out, "  %-10s %d\n", st, counts[st])
	}
	return nil
}

func joinStatuses(sep string) string {
	names := make([]string, len(reports.Statuses))
	for i, st := range reports.Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, sep)
}
