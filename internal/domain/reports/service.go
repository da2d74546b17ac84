// Package reports renders HR exports of the time-tracking data.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"hrtime/internal/domain/identity"
	"hrtime/internal/domain/timerecord"
)

const maxReportRecords = 10000

type Service struct {
	Records timerecord.StoreAPI
	Users   identity.StoreAPI
}

func NewService(records timerecord.StoreAPI, users identity.StoreAPI) *Service {
	return &Service{Records: records, Users: users}
}

type row struct {
	email    string
	fullName string
	checkIn  time.Time
	checkOut *time.Time
	hours    string
	hoursVal float64
	status   string
	notes    string
}

func (s *Service) rows(ctx context.Context, filters timerecord.ListFilters) ([]row, error) {
	result, err := s.Records.List(ctx, filters, maxReportRecords, 0)
	if err != nil {
		return nil, err
	}

	names := map[string]identity.User{}
	rows := make([]row, 0, len(result.Records))
	for _, record := range result.Records {
		user, ok := names[record.UserID]
		if !ok {
			user, _, err = s.Users.GetByID(ctx, record.UserID)
			if err != nil {
				return nil, err
			}
			names[record.UserID] = user
		}

		hours := ""
		var hoursVal float64
		if record.CheckOut != nil {
			hoursVal = timerecord.HoursBetween(record.CheckIn, *record.CheckOut)
			hours = strconv.FormatFloat(hoursVal, 'f', 2, 64)
		}
		rows = append(rows, row{
			email:    user.Email,
			fullName: user.FullName,
			checkIn:  record.CheckIn,
			checkOut: record.CheckOut,
			hours:    hours,
			hoursVal: hoursVal,
			status:   record.Status,
			notes:    record.Notes,
		})
	}
	return rows, nil
}

// TimeReportCSV streams the filtered time records as CSV.
func (s *Service) TimeReportCSV(ctx context.Context, filters timerecord.ListFilters, w io.Writer) error {
	rows, err := s.rows(ctx, filters)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"email", "full_name", "check_in", "check_out", "hours", "status", "notes"}); err != nil {
		return err
	}
	for _, r := range rows {
		checkOut := ""
		if r.checkOut != nil {
			checkOut = r.checkOut.UTC().Format(time.RFC3339)
		}
		record := []string{
			r.email, r.fullName,
			r.checkIn.UTC().Format(time.RFC3339), checkOut,
			r.hours, r.status, r.notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TimeReportPDF renders the filtered time records as a tabular PDF.
func (s *Service) TimeReportPDF(ctx context.Context, filters timerecord.ListFilters, generatedAt time.Time) ([]byte, error) {
	rows, err := s.rows(ctx, filters)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Time Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Time Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", generatedAt.UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	headers := []string{"Email", "Name", "Check-in", "Check-out", "Hours", "Status"}
	widths := []float64{60, 50, 45, 45, 20, 40}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, r := range rows {
		checkOut := "-"
		if r.checkOut != nil {
			checkOut = r.checkOut.UTC().Format("2006-01-02 15:04")
		}
		hours := r.hours
		if hours == "" {
			hours = "-"
		}
		cells := []string{
			r.email, r.fullName,
			r.checkIn.UTC().Format("2006-01-02 15:04"), checkOut,
			hours, r.status,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	totals := map[string]float64{}
	var order []string
	for _, r := range rows {
		if _, ok := totals[r.email]; !ok {
			order = append(order, r.email)
		}
		totals[r.email] += r.hoursVal
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 8, "Totals per employee")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	for _, email := range order {
		pdf.Cell(110, 6, email)
		pdf.Cell(30, 6, strconv.FormatFloat(timerecord.RoundHours(totals[email]), 'f', 2, 64)+" h")
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
