package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/repo/postgres"
	"github.com/hoteleiro/breakfast-pass/internal/utils"
	"github.com/hoteleiro/breakfast-pass/pkg/events"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

const (
	ImportModeUpsert  = "upsert"
	ImportModeReplace = "replace"
)

var ErrBadImportMode = errors.New("import mode must be upsert or replace")

// GuestService is the roster CRUD layer used by reception. It owns the
// derived usedToday flag: the flag is recomputed against today's civil
// date on every read, never trusted from storage.
type GuestService struct {
	guests postgres.GuestRepo
	clock  clock.Clock
	bus    events.Publisher
}

func NewGuestService(guests postgres.GuestRepo, clk clock.Clock, bus events.Publisher) *GuestService {
	return &GuestService{guests: guests, clock: clk, bus: bus}
}

func (s *GuestService) today() string {
	return clock.Today(s.clock.Now())
}

func (s *GuestService) List(ctx context.Context) ([]domain.Guest, error) {
	gs, err := s.guests.List(ctx)
	if err != nil {
		return nil, err
	}
	s.markAll(gs)
	return gs, nil
}

func (s *GuestService) Get(ctx context.Context, id string) (*domain.Guest, error) {
	g, err := s.guests.GetByID(ctx, strings.TrimSpace(id))
	if err != nil || g == nil {
		return nil, err
	}
	g.MarkUsedToday(s.today())
	return g, nil
}

// ListRoom returns the public projection of a room's guests. With a name,
// it returns at most the one guest whose accent-folded name matches.
func (s *GuestService) ListRoom(ctx context.Context, room, name string) ([]domain.PublicGuest, error) {
	gs, err := s.guests.ListByRoom(ctx, strings.TrimSpace(room))
	if err != nil {
		return nil, err
	}
	s.markAll(gs)

	if wanted := utils.NormalizeGuestName(name); wanted != "" {
		for _, g := range gs {
			if utils.NormalizeGuestName(g.Name) == wanted {
				return []domain.PublicGuest{g.Public()}, nil
			}
		}
		return []domain.PublicGuest{}, nil
	}

	out := make([]domain.PublicGuest, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.Public())
	}
	return out, nil
}

// Import loads a roster batch. Upsert merges by id; replace swaps the
// whole roster. Rows without an id get one assigned.
func (s *GuestService) Import(ctx context.Context, mode string, guests []domain.Guest) ([]domain.Guest, error) {
	switch mode {
	case ImportModeUpsert, ImportModeReplace:
	default:
		return nil, ErrBadImportMode
	}

	for i := range guests {
		guests[i].ID = strings.TrimSpace(guests[i].ID)
		if guests[i].ID == "" {
			guests[i].ID = uuid.NewString()
		}
		guests[i].ConsumptionDate = normalizeConsumption(guests[i].ConsumptionDate)
	}

	var (
		out []domain.Guest
		err error
	)
	if mode == ImportModeReplace {
		out, err = s.guests.ReplaceAll(ctx, guests)
	} else {
		out, err = s.guests.Upsert(ctx, guests)
	}
	if err != nil {
		return nil, fmt.Errorf("import roster: %w", err)
	}

	s.markAll(out)

	evt := events.RosterImportedEvent{Mode: mode, GuestCount: len(out)}
	if err := s.bus.Publish(ctx, events.SubjectRosterImported, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish roster event", "error", err)
	}

	return out, nil
}

func (s *GuestService) Update(ctx context.Context, id string, upd *domain.GuestUpdate) (*domain.Guest, error) {
	if upd.ConsumptionDate != nil {
		normalized := utils.NormalizeCivilDate(*upd.ConsumptionDate)
		upd.ConsumptionDate = &normalized
	}

	g, err := s.guests.Update(ctx, strings.TrimSpace(id), upd)
	if err != nil || g == nil {
		return nil, err
	}
	g.MarkUsedToday(s.today())
	return g, nil
}

func (s *GuestService) Delete(ctx context.Context, id string) (bool, error) {
	return s.guests.Delete(ctx, strings.TrimSpace(id))
}

func (s *GuestService) DeleteAll(ctx context.Context) (int64, error) {
	return s.guests.DeleteAll(ctx)
}

func (s *GuestService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.guests.Stats(ctx, s.today())
}

func (s *GuestService) markAll(gs []domain.Guest) {
	today := s.today()
	for i := range gs {
		gs[i].MarkUsedToday(today)
	}
}

func normalizeConsumption(date *string) *string {
	if date == nil {
		return nil
	}
	normalized := utils.NormalizeCivilDate(*date)
	if normalized == "" {
		return nil
	}
	return &normalized
}
