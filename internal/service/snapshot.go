package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Snapshotter periodically writes each project's layout to a timestamped
// JSON file, keeping a bounded history of recent states.
type Snapshotter struct {
	service *LayoutService
	logger  *log.Logger
	keep    int
	cron    *cron.Cron
}

// NewSnapshotter creates a Snapshotter that retains the keep most recent
// snapshots per project.
func NewSnapshotter(service *LayoutService, logger *log.Logger, keep int) *Snapshotter {
	if keep <= 0 {
		keep = 20
	}
	return &Snapshotter{service: service, logger: logger, keep: keep}
}

// Start schedules snapshots on the given cron spec (e.g. "@every 5m").
func (s *Snapshotter) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return fmt.Errorf("schedule snapshots: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for a running snapshot to finish.
func (s *Snapshotter) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run snapshots every project once. Failures are logged per project so one
// broken layout does not block the rest.
func (s *Snapshotter) Run() {
	projects, err := s.service.ListProjects()
	if err != nil {
		s.logger.Error("snapshot: list projects", "err", err)
		return
	}
	for _, project := range projects {
		if err := s.snapshot(project); err != nil {
			s.logger.Error("snapshot failed", "project", project, "err", err)
		}
	}
}

func (s *Snapshotter) snapshot(project string) error {
	layout, err := s.service.GetLayout(project)
	if err != nil {
		return err
	}

	dir, err := s.service.db.SnapshotDir(project)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	name := fmt.Sprintf("layout-%s.json", time.Now().UTC().Format("20060102-150405"))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return s.prune(dir)
}

// prune removes the oldest snapshots beyond the retention limit.
func (s *Snapshotter) prune(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.keep {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Snapshots lists a project's snapshot file names, newest last.
func (s *Snapshotter) Snapshots(project string) ([]string, error) {
	layout, err := s.service.GetLayout(project)
	if err != nil {
		return nil, err
	}
	dir, err := s.service.db.SnapshotDir(layout.Project)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
