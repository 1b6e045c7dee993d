package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gridguardian/gridsim/internal/registry"
	"github.com/gridguardian/gridsim/pkg/models"
)

// Export writes the three downstream tables as CSV under dir: raw telemetry,
// equipment locations, and the feature table. The column set is the interface
// contract; CSV is just a convenient flat encoding for the dashboard and
// training scripts.
func (res *Result) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeRawTable(filepath.Join(dir, "grid_telemetry.csv"), res.Raw); err != nil {
		return err
	}
	if err := writeLocationTable(filepath.Join(dir, "equipment_locations.csv"), res.Registry); err != nil {
		return err
	}
	if err := writeFeatureTable(filepath.Join(dir, "features.csv"), res); err != nil {
		return err
	}
	return writeFeatureSample(filepath.Join(dir, "features_sample.csv"), res)
}

func writeTable(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := rows(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func rawHeader() []string {
	header := []string{"timestamp", "equipment_id"}
	return append(header, models.ChannelNames[:]...)
}

func writeRawTable(path string, batch []models.TelemetryRecord) error {
	return writeTable(path, rawHeader(), func(w *csv.Writer) error {
		row := make([]string, 0, 2+models.NumChannels)
		for i := range batch {
			row = row[:0]
			row = append(row, batch[i].Timestamp.Format(time.RFC3339), batch[i].EquipmentID)
			for ch := 0; ch < models.NumChannels; ch++ {
				row = append(row, formatFloat(batch[i].Values[ch]))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeLocationTable(path string, reg *registry.Registry) error {
	header := []string{
		"equipment_id", "substation_id", "substation_name", "region",
		"latitude", "longitude", "equipment_type", "capacity_mw",
		"voltage_class_kv", "installation_year",
	}
	return writeTable(path, header, func(w *csv.Writer) error {
		for _, u := range reg.Units() {
			row := []string{
				u.ID, u.SubstationID, u.SubstationName, u.Region,
				formatFloat(u.Latitude), formatFloat(u.Longitude),
				string(u.Type), formatFloat(u.CapacityMW),
				strconv.Itoa(u.VoltageClassKV), strconv.Itoa(u.InstallationYear),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func featureHeader(res *Result) []string {
	header := rawHeader()
	header = append(header,
		"hour", "day_of_week", "month", "is_weekend",
		"hour_sin", "hour_cos", "day_sin", "day_cos")
	header = append(header, res.Engine.RollingColumns()...)
	for ch := 0; ch < models.NumChannels; ch++ {
		header = append(header, models.ChannelNames[ch]+"_roc")
	}
	for _, u := range res.Registry.Units() {
		header = append(header, "equipment_"+u.ID)
	}
	return append(header, "risk_level", "failure_probability")
}

func writeFeatureRows(w *csv.Writer, rows []models.FeatureRecord) error {
	for i := range rows {
		fr := &rows[i]
		row := make([]string, 0, 2+models.NumChannels*6+len(fr.Rolling)+len(fr.OneHot)+10)
		row = append(row, fr.Timestamp.Format(time.RFC3339), fr.EquipmentID)
		for ch := 0; ch < models.NumChannels; ch++ {
			row = append(row, formatFloat(fr.Values[ch]))
		}
		row = append(row,
			strconv.Itoa(fr.Hour), strconv.Itoa(fr.DayOfWeek), strconv.Itoa(fr.Month),
			boolFlag(fr.IsWeekend),
			formatFloat(fr.HourSin), formatFloat(fr.HourCos),
			formatFloat(fr.DaySin), formatFloat(fr.DayCos))
		for _, v := range fr.Rolling {
			row = append(row, formatFloat(v))
		}
		for ch := 0; ch < models.NumChannels; ch++ {
			row = append(row, formatFloat(fr.RateOfChange[ch]))
		}
		for _, v := range fr.OneHot {
			row = append(row, formatFloat(v))
		}
		row = append(row, strconv.Itoa(int(fr.RiskLevel)), formatFloat(fr.FailureProbability))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeFeatureTable(path string, res *Result) error {
	return writeTable(path, featureHeader(res), func(w *csv.Writer) error {
		return writeFeatureRows(w, res.Features)
	})
}

func writeFeatureSample(path string, res *Result) error {
	return writeTable(path, featureHeader(res), func(w *csv.Writer) error {
		return writeFeatureRows(w, res.Sample)
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
