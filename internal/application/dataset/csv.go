package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/calledstrike/szas/internal/domain/pitch"
	"github.com/calledstrike/szas/pkg/errors"
)

// snapshotColumns is the fixed column order of a season snapshot file.
var snapshotColumns = []string{
	"game_id", "at_bat_number", "pitch_number",
	"batter_id", "umpire_id", "side", "season",
	"px", "pz", "sz_top", "sz_bot",
	"decision", "call",
}

// EncodeSnapshot writes records as a CSV season snapshot.
func EncodeSnapshot(records []pitch.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(snapshotColumns); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to write snapshot header")
	}
	for _, r := range records {
		row := []string{
			r.GameID,
			strconv.Itoa(r.AtBatNumber),
			strconv.Itoa(r.PitchNumber),
			strconv.FormatInt(r.BatterID, 10),
			strconv.FormatInt(r.UmpireID, 10),
			r.Side,
			strconv.Itoa(r.Season),
			strconv.FormatFloat(r.PX, 'f', -1, 64),
			strconv.FormatFloat(r.PZ, 'f', -1, 64),
			strconv.FormatFloat(r.SZTop, 'f', -1, 64),
			strconv.FormatFloat(r.SZBot, 'f', -1, 64),
			string(r.Decision),
			string(r.Call),
		}
		if err := w.Write(row); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to write snapshot row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to flush snapshot")
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot parses a CSV season snapshot back into records. Any row that
// fails to parse or validate makes the whole snapshot malformed; imports are
// all-or-nothing.
func DecodeSnapshot(data []byte) ([]pitch.Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(snapshotColumns)

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatasetMalformed, "snapshot has no header row")
	}
	for i, col := range snapshotColumns {
		if header[i] != col {
			return nil, errors.New(errors.ErrCodeDatasetMalformed,
				fmt.Sprintf("snapshot header column %d is %q, want %q", i, header[i], col))
		}
	}

	var records []pitch.Record
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatasetMalformed,
				fmt.Sprintf("snapshot line %d is not parseable", line))
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatasetMalformed,
				fmt.Sprintf("snapshot line %d is invalid", line))
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeDatasetMalformed, "snapshot contains no rows")
	}
	return records, nil
}

func parseRow(row []string) (pitch.Record, error) {
	var rec pitch.Record
	var err error

	rec.GameID = row[0]
	if rec.GameID == "" {
		return rec, fmt.Errorf("empty game_id")
	}
	if rec.AtBatNumber, err = strconv.Atoi(row[1]); err != nil {
		return rec, fmt.Errorf("at_bat_number: %w", err)
	}
	if rec.PitchNumber, err = strconv.Atoi(row[2]); err != nil {
		return rec, fmt.Errorf("pitch_number: %w", err)
	}
	if rec.BatterID, err = strconv.ParseInt(row[3], 10, 64); err != nil {
		return rec, fmt.Errorf("batter_id: %w", err)
	}
	if rec.UmpireID, err = strconv.ParseInt(row[4], 10, 64); err != nil {
		return rec, fmt.Errorf("umpire_id: %w", err)
	}
	rec.Side = row[5]
	if rec.Season, err = strconv.Atoi(row[6]); err != nil {
		return rec, fmt.Errorf("season: %w", err)
	}
	if rec.PX, err = strconv.ParseFloat(row[7], 64); err != nil {
		return rec, fmt.Errorf("px: %w", err)
	}
	if rec.PZ, err = strconv.ParseFloat(row[8], 64); err != nil {
		return rec, fmt.Errorf("pz: %w", err)
	}
	if rec.SZTop, err = strconv.ParseFloat(row[9], 64); err != nil {
		return rec, fmt.Errorf("sz_top: %w", err)
	}
	if rec.SZBot, err = strconv.ParseFloat(row[10], 64); err != nil {
		return rec, fmt.Errorf("sz_bot: %w", err)
	}
	rec.Decision = pitch.Decision(row[11])
	rec.Call = pitch.Call(row[12])

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}
