package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/OCAP2/combatlog/internal/config"
	v1 "github.com/OCAP2/combatlog/internal/export/v1"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement names written per fight.
const (
	MeasurementFight  = "fight"
	MeasurementDamage = "fight_damage"
	MeasurementHeal   = "fight_healing"
)

// Manager handles InfluxDB connections and writes. When the server is not
// reachable, points go as gzipped line protocol to BackupPath instead.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	errWG      sync.WaitGroup
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		cfg:        cfg,
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB, falling back to the backup file.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Info().Str("backupPath", m.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influxDB unreachable and no backup path set")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()

	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	errorsCh := m.Writer.Errors()
	m.errWG.Add(1)
	go func() {
		defer m.errWG.Done()
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid {
		if m.Writer == nil {
			return errors.New("influxDB writer not initialized")
		}
		m.Writer.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := m.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// WriteSnapshot writes one summary point per closed fight and one point per
// row of its damage and healing tables, all stamped with the fight end.
func (m *Manager) WriteSnapshot(runID string, snap *v1.Snapshot) (int, error) {
	points := SnapshotPoints(runID, snap)
	for _, p := range points {
		if err := m.WritePoint(p); err != nil {
			return 0, err
		}
	}
	m.Logger.Debug().Str("run", runID).Int("points", len(points)).Msg("Wrote fight points")
	return len(points), nil
}

// Close flushes pending writes and closes the client or backup file.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
		m.errWG.Wait()
	}
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Close(); err != nil {
			return fmt.Errorf("error closing backup writer: %w", err)
		}
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		err := m.backupFile.Close()
		m.backupFile = nil
		return err
	}
	return nil
}

// SnapshotPoints converts closed fights into points. Open fights are skipped.
func SnapshotPoints(runID string, snap *v1.Snapshot) []*influxdb2_write.Point {
	var points []*influxdb2_write.Point
	for _, f := range snap.Fights {
		if f.End == nil {
			continue
		}
		tags := map[string]string{
			"run":     runID,
			"fight":   fmt.Sprint(f.ID),
			"trigger": f.Trigger,
		}
		if f.Zone != nil {
			tags["zone"] = f.Zone.Name
		}
		if f.Encounter != nil {
			tags["encounter"] = f.Encounter.Name
		}

		fields := map[string]interface{}{
			"duration_ms": f.End.Sub(f.Start).Milliseconds(),
			"friendly":    len(f.Friendly),
			"hostile":     len(f.Hostile),
			"deaths":      len(f.Deaths),
			"damage":      total(f.DamageDone),
			"healing":     total(f.HealingDone),
		}
		if f.Encounter != nil {
			fields["success"] = f.Encounter.Success
		}
		points = append(points, influxdb2.NewPoint(MeasurementFight, tags, fields, *f.End))

		rows := func(measurement string, table []v1.Amount) {
			for _, a := range table {
				p := influxdb2_write.NewPointWithMeasurement(measurement).
					AddTag("run", runID).
					AddTag("fight", fmt.Sprint(f.ID)).
					AddTag("guid", a.GUID).
					AddTag("name", a.Name).
					AddField("amount", a.Amount).
					SetTime(*f.End)
				points = append(points, p)
			}
		}
		rows(MeasurementDamage, f.DamageDone)
		rows(MeasurementHeal, f.HealingDone)
	}
	return points
}

func total(rows []v1.Amount) int64 {
	var sum int64
	for _, r := range rows {
		sum += r.Amount
	}
	return sum
}
