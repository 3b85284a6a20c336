package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/models"
)

type occupancyRepository interface {
	RoomLedger(ctx context.Context, hostelID string) ([]models.RoomLedgerRow, error)
	RoomTypeBreakdown(ctx context.Context, hostelID string) ([]models.RoomTypeOccupancy, error)
}

type pendingTransferTotals interface {
	CountPending(ctx context.Context, hostelID string) (int, error)
}

type feeTotalsRepository interface {
	Totals(ctx context.Context, hostelID string, asOf time.Time) (*models.FeeTotals, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the occupancy summary and caches it per hostel.
type DashboardService struct {
	ledger    occupancyRepository
	transfers pendingTransferTotals
	fees      feeTotalsRepository
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Ledger    occupancyRepository
	Transfers pendingTransferTotals
	Fees      feeTotalsRepository
	Cache     *CacheService
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		ledger:    params.Ledger,
		transfers: params.Transfers,
		fees:      params.Fees,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Occupancy returns the occupancy summary for the caller's hostel and whether it came from cache.
func (s *DashboardService) Occupancy(ctx context.Context, actor *models.JWTClaims, hostelID string) (*models.OccupancySummary, bool, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, false, err
	}
	hostelID = actor.ScopeHostel(hostelID)
	key := OccupancyKey(hostelID)

	if s.cache != nil {
		var cached models.OccupancySummary
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed; recomputing", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx, hostelID)
	if err != nil {
		return nil, false, err
	}
	s.metrics.SetOccupancyRate(hostelID, summary.OccupancyRate)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context, hostelID string) (*models.OccupancySummary, error) {
	rows, err := s.ledger.RoomLedger(ctx, hostelID)
	if err != nil {
		return nil, wrapInternal(err, "failed to load room ledger")
	}
	breakdown, err := s.ledger.RoomTypeBreakdown(ctx, hostelID)
	if err != nil {
		return nil, wrapInternal(err, "failed to load room type breakdown")
	}
	pending, err := s.transfers.CountPending(ctx, hostelID)
	if err != nil {
		return nil, wrapInternal(err, "failed to count pending transfers")
	}
	now := s.now()
	totals, err := s.fees.Totals(ctx, hostelID, now)
	if err != nil {
		return nil, wrapInternal(err, "failed to load fee totals")
	}

	summary := SummarizeRooms(rows)
	summary.HostelID = hostelID
	summary.RoomTypeBreakdown = breakdown
	summary.PendingTransfers = pending
	summary.PendingFeeTotal = totals.Pending
	summary.OverdueFeeTotal = totals.Overdue
	summary.GeneratedAt = now.UTC()
	return summary, nil
}

// SummarizeRooms counts rooms per derived status and beds in use.
func SummarizeRooms(rows []models.RoomLedgerRow) *models.OccupancySummary {
	summary := &models.OccupancySummary{
		RoomsByStatus: map[models.RoomStatus]int{
			models.RoomStatusAvailable:         0,
			models.RoomStatusPartiallyOccupied: 0,
			models.RoomStatusOccupied:          0,
			models.RoomStatusMaintenance:       0,
		},
	}
	for _, row := range rows {
		summary.TotalRooms++
		summary.TotalBeds += row.Capacity
		summary.OccupiedBeds += row.OccupancyCount
		summary.RoomsByStatus[models.DeriveRoomStatus(row.OccupancyCount, row.Capacity, row.UnderMaintenance)]++
	}
	if summary.TotalBeds > 0 {
		rate := float64(summary.OccupiedBeds) / float64(summary.TotalBeds) * 100
		summary.OccupancyRate = math.Round(rate*100) / 100
	}
	return summary
}
