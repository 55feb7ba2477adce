package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// RoundCSVHeader is the column order written by RoundCSVExporter.
var RoundCSVHeader = []string{
	"Round", "Outcome", "Winner", "Winning Score", "Payout", "Recipient",
	"Participants", "Transfer Ref", "Started At", "Ended At",
}

// RoundCSVExporter writes archived rounds as CSV rows
type RoundCSVExporter struct {
	w        *csv.Writer
	decimals int32
	rows     int
}

// NewRoundCSVExporter creates an exporter formatting amounts with the given token decimals
func NewRoundCSVExporter(w io.Writer, decimals int32) *RoundCSVExporter {
	return &RoundCSVExporter{w: csv.NewWriter(w), decimals: decimals}
}

// WriteHeader writes the header row
func (e *RoundCSVExporter) WriteHeader() error {
	return e.w.Write(RoundCSVHeader)
}

// Write appends one round
func (e *RoundCSVExporter) Write(r *models.RoundResult) error {
	var winner, score string
	if r.Winner != nil {
		winner = string(r.Winner.WinnerID)
		score = r.Winner.WinningScore.Format(e.decimals)
	}
	var startedAt string
	if r.StartedAt != nil {
		startedAt = r.StartedAt.UTC().Format(time.RFC3339)
	}

	row := []string{
		strconv.FormatUint(r.RoundNumber, 10),
		string(r.Outcome),
		winner,
		score,
		r.Payout.Format(e.decimals),
		string(r.Recipient),
		strconv.Itoa(len(r.Participants)),
		r.TransferRef,
		startedAt,
		r.EndedAt.UTC().Format(time.RFC3339),
	}
	if err := e.w.Write(row); err != nil {
		return fmt.Errorf("failed to write round %d: %w", r.RoundNumber, err)
	}
	e.rows++
	return nil
}

// Flush flushes buffered rows and returns the number written so far
func (e *RoundCSVExporter) Flush() (int, error) {
	e.w.Flush()
	return e.rows, e.w.Error()
}
