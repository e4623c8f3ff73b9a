// Package authz holds the role policy table for scoring operations. The
// table is a Casbin model plus CSV policy embedded at build time and can be
// replaced by files at runtime.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/rs/zerolog/log"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Config points at optional model/policy files; empty means embedded.
type Config struct {
	ModelPath  string
	PolicyPath string
}

// Policy answers Authorize from the role table and, for hotel managers,
// the manager directory.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
	managers domain.ManagerDirectory
}

func New(cfg Config, managers domain.ManagerDirectory) (*Policy, error) {
	var (
		m   model.Model
		err error
	)
	if cfg.ModelPath != "" {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		e, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(e, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	return &Policy{enforcer: e, managers: managers}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] != "p" || len(parts) != 4 {
			return fmt.Errorf("bad policy line %q", line)
		}
		if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

func (p *Policy) allowed(role domain.Role, obj, act string) bool {
	ok, err := p.enforcer.Enforce(string(role), obj, act)
	if err != nil {
		log.Error().Err(err).Str("role", string(role)).Str("obj", obj).Str("act", act).Msg("policy enforcement failed")
		return false
	}
	return ok
}

func (p *Policy) Authorize(ctx context.Context, c domain.Caller, act domain.Action, hotelID int64) error {
	var ok bool
	switch act {
	case domain.ActionReadLeaderboard:
		ok = p.allowed(c.Role, "leaderboard", "read")
	case domain.ActionRecalculateAll:
		ok = p.allowed(c.Role, "scoring", "recalculate_all")
	case domain.ActionPublishEvents:
		ok = p.allowed(c.Role, "hotel_events", "publish")
	case domain.ActionCalculate:
		if p.allowed(c.Role, "scoring", "calculate_any") {
			return nil
		}
		if p.allowed(c.Role, "scoring", "calculate_own") {
			managed, err := p.managesHotel(ctx, c, hotelID)
			if err != nil {
				return err
			}
			ok = managed
		}
	}
	if !ok {
		return fmt.Errorf("%w: role %q may not %s", domain.ErrForbidden, c.Role, act)
	}
	return nil
}

func (p *Policy) managesHotel(ctx context.Context, c domain.Caller, hotelID int64) (bool, error) {
	if c.HotelID != nil && *c.HotelID == hotelID {
		return true, nil
	}
	if p.managers == nil {
		return false, nil
	}
	ok, err := p.managers.ManagesHotel(ctx, c.UserID, hotelID)
	if err != nil {
		return false, fmt.Errorf("check hotel manager assignment: %w", err)
	}
	return ok, nil
}
