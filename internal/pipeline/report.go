// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// report is the YAML run record written next to the digest HTML. It is
// the run's durable trace for post-hoc debugging; nothing reads it back.
type report struct {
	RunID       string           `yaml:"run_id"`
	GeneratedAt time.Time        `yaml:"generated_at"`
	Procedures  int              `yaml:"procedures"`
	Articles    int              `yaml:"articles"`
	Pearls      int              `yaml:"pearls"`
	Dispatched  bool             `yaml:"dispatched"`
	DryRun      bool             `yaml:"dry_run,omitempty"`
	Sections    []sectionOutcome `yaml:"sections"`
}

// sectionOutcome records one procedure's result.
type sectionOutcome struct {
	Procedure  string         `yaml:"procedure"`
	Articles   int            `yaml:"articles"`
	Pearls     int            `yaml:"pearls"`
	Note       string         `yaml:"note,omitempty"`
	Provenance map[string]int `yaml:"provenance,omitempty"`
}

func buildReport(d types.Digest, res Result) report {
	r := report{
		RunID:       d.RunID,
		GeneratedAt: d.GeneratedAt,
		Procedures:  len(d.Sections),
		Articles:    d.ArticleCount(),
		Pearls:      d.PearlCount(),
		Dispatched:  res.Dispatched,
	}
	for _, s := range d.Sections {
		outcome := sectionOutcome{
			Procedure: s.Procedure,
			Articles:  len(s.Articles),
			Pearls:    len(s.Pearls),
			Note:      s.Note,
		}
		for _, a := range s.Articles {
			if outcome.Provenance == nil {
				outcome.Provenance = make(map[string]int)
			}
			outcome.Provenance[string(a.Provenance)]++
		}
		r.Sections = append(r.Sections, outcome)
	}
	return r
}

func writeReport(path string, r report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
