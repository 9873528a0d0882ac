package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const snapshotYAML = `profile:
  birth_year: 1986
  gender: Male
metrics:
  - type: steps
    value: 4000
    date: 2026-05-01T08:00:00Z
    source: healthKit
  - type: smokingStatus
    value: 6
    date: 2026-05-02T08:00:00Z
    source: userInput
completeness:
  tracked_metric_types: 2
  history_days: 30
`

func execute(stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestImpactCmd(t *testing.T) {
	Convey("Given the impact command", t, func() {
		Convey("When a single reading is passed by flag", func() {
			out, err := execute("", "impact", "--type", "steps", "--value", "4000")

			Convey("Then the daily impact should be printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Daily impact")
				So(out, ShouldContainSubstring, "-15.0 min")
			})
		})

		Convey("When the type differs only in case", func() {
			out, err := execute("", "impact", "--type", "Steps", "--value", "4000")

			Convey("Then it should resolve to the known metric", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "-15.0 min")
			})
		})

		Convey("When the type is unknown", func() {
			_, err := execute("", "impact", "--type", "bloodSugar", "--value", "140")

			Convey("Then the command should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "bloodSugar")
			})
		})

		Convey("When the snapshot comes from stdin as JSON output", func() {
			out, err := execute(snapshotYAML, "impact", "--file", "-", "--json")
			So(err, ShouldBeNil)

			var rows []struct {
				ID     string `json:"id"`
				Type   string `json:"type"`
				Impact struct {
					Minutes float64 `json:"lifespan_impact_minutes"`
				} `json:"impact"`
			}
			So(json.Unmarshal([]byte(out), &rows), ShouldBeNil)

			Convey("Then each reading should carry a derived ID and its impact", func() {
				So(rows, ShouldHaveLength, 2)
				So(rows[0].ID, ShouldNotBeEmpty)
				So(rows[0].Impact.Minutes, ShouldAlmostEqual, -15.0)
				So(rows[1].Impact.Minutes, ShouldEqual, -240.0)
			})
		})

		Convey("When no snapshot is given", func() {
			_, err := execute("", "impact")

			Convey("Then it should fail", func() {
				So(err, ShouldEqual, errNoSnapshot)
			})
		})
	})
}

func TestAggregateCmd(t *testing.T) {
	Convey("Given a snapshot file", t, func() {
		path := writeSnapshot(t, snapshotYAML)

		Convey("When aggregating over a month", func() {
			out, err := execute("", "aggregate", "--file", path, "--period", "month", "--json")
			So(err, ShouldBeNil)

			var data struct {
				TimePeriod  string `json:"time_period"`
				TotalImpact struct {
					Minutes float64 `json:"lifespan_impact_minutes"`
				} `json:"total_impact"`
			}
			So(json.Unmarshal([]byte(out), &data), ShouldBeNil)

			Convey("Then steps should scale and smoking should not", func() {
				So(data.TimePeriod, ShouldEqual, "month")
				So(data.TotalImpact.Minutes, ShouldAlmostEqual, -15.0*30-240, 1e-9)
			})
		})

		Convey("When printing text", func() {
			out, err := execute("", "aggregate", "--file", path)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Impact per day")
			So(out, ShouldContainSubstring, "smokingStatus")
			So(out, ShouldContainSubstring, "-255.0 min")
		})

		Convey("When the period is unknown", func() {
			_, err := execute("", "aggregate", "--file", path, "--period", "fortnight")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "fortnight")
		})
	})
}

func TestProjectCmd(t *testing.T) {
	Convey("Given a snapshot without a profile", t, func() {
		path := writeSnapshot(t, "metrics: []\n")

		Convey("When projecting a neutral daily total", func() {
			out, err := execute("", "project", "--file", path, "--daily-total", "0", "--json")
			So(err, ShouldBeNil)

			var p struct {
				Baseline float64 `json:"baseline_life_expectancy_years"`
				Adjusted float64 `json:"adjusted_life_expectancy_years"`
				Net      float64 `json:"net_impact_years"`
			}
			So(json.Unmarshal([]byte(out), &p), ShouldBeNil)

			Convey("Then the default baseline should be returned unchanged", func() {
				So(p.Baseline, ShouldEqual, 78.0)
				So(p.Adjusted, ShouldEqual, 78.0)
				So(p.Net, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given a smoker's snapshot", t, func() {
		path := writeSnapshot(t, snapshotYAML)
		out, err := execute("", "project", "--file", path)

		Convey("Then the projection should be printed", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Life projection")
			So(out, ShouldContainSubstring, "confidence")
		})

		Convey("Then confidence should be rendered as a percentage", func() {
			raw, err := execute("", "project", "--file", path, "--json")
			So(err, ShouldBeNil)
			var p struct {
				Confidence float64 `json:"confidence_percentage"`
			}
			So(json.Unmarshal([]byte(raw), &p), ShouldBeNil)
			So(p.Confidence, ShouldBeGreaterThan, 0.1)
			So(p.Confidence, ShouldBeLessThanOrEqualTo, 1.0)
			So(out, ShouldContainSubstring, fmt.Sprintf("%.0f%% (", p.Confidence*100))
		})

		Convey("Then the net impact should be negative", func() {
			raw, err := execute("", "project", "--file", path, "--json")
			So(err, ShouldBeNil)
			var p struct {
				Net float64 `json:"net_impact_years"`
			}
			So(json.Unmarshal([]byte(raw), &p), ShouldBeNil)
			So(p.Net, ShouldBeLessThan, 0)
		})
	})
}

func TestRecommendCmd(t *testing.T) {
	Convey("Given a smoker's snapshot", t, func() {
		path := writeSnapshot(t, snapshotYAML)
		out, err := execute("", "recommend", "--file", path)

		Convey("Then quitting should be recommended", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Quit smoking")
			So(out, ShouldContainSubstring, "smokingStatus")
		})
	})

	Convey("Given an empty snapshot", t, func() {
		path := writeSnapshot(t, "metrics: []\n")
		out, err := execute("", "recommend", "--file", path)

		Convey("Then no recommendation should be made", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "No recommendation")
		})
	})

	Convey("Given a reading without a type", t, func() {
		path := writeSnapshot(t, "metrics:\n  - value: 3\n")
		_, err := execute("", "recommend", "--file", path)

		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "missing type")
	})
}
