package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/zatekoja/patientportal/internal/application/services"
	"github.com/zatekoja/patientportal/internal/domain/entities"
)

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func renderDoctors(out io.Writer, doctors []entities.Doctor) {
	if len(doctors) == 0 {
		fmt.Fprintln(out, "No doctors available.")
		return
	}
	table := newTable(out, "ID", "Doctor", "Specialization")
	for _, d := range doctors {
		table.Append([]string{strconv.Itoa(d.ID), d.FullName(), d.Specialization})
	}
	table.Render()
}

func visitStatus(item services.VisitItem) string {
	switch {
	case item.Missed:
		return "missed"
	case item.Visit.Attended() && item.Past:
		return "attended"
	case item.Visit.Attended():
		return "confirmed"
	default:
		return "upcoming"
	}
}

func renderVisits(out io.Writer, items []services.VisitItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No visits yet.")
		return
	}
	table := newTable(out, "ID", "Date", "Time", "Doctor", "Status")
	for _, item := range items {
		v := item.Visit
		table.Append([]string{strconv.Itoa(v.ID), v.Date, v.Time, v.DoctorName(), visitStatus(item)})
	}
	table.Render()
}

func renderVisitSummary(out io.Writer, item services.VisitItem) {
	v := item.Visit
	fmt.Fprintf(out, "Visit %d: %s %s with %s (%s)\n", v.ID, v.Date, v.Time, v.DoctorName(), visitStatus(item))
}

func renderRecommendations(out io.Writer, recs []entities.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "  No recommendations.")
		return
	}
	for i, r := range recs {
		fmt.Fprintf(out, "  %d. %s\n", i+1, r.Recommendation)
	}
}

func renderVisitDetail(out io.Writer, detail *entities.VisitDetail) {
	fmt.Fprintf(out, "Visit %d: %s %s with %s %s\n", detail.ID, detail.Date, detail.Time, detail.SurnameDoctor, detail.NameDoctor)
	renderRecommendations(out, detail.Recommendations)
}

func renderProfile(out io.Writer, p *entities.Profile) {
	table := newTable(out, "Field", "Value")
	table.AppendBulk([][]string{
		{"Name", p.Name},
		{"Surname", p.Surname},
		{"Login", p.Login},
		{"Address", p.Address},
		{"Passport", p.Passport},
		{"Telephone", p.Telephone},
	})
	table.Render()
}
