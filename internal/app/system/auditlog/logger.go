// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"

	"github.com/dalemusser/orghub/internal/app/store/audit"
	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for audit events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Org controls logging of organization lifecycle events.
	Org string
}

// EventStore persists audit events. Satisfied by *audit.Store.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records organization audit events to MongoDB and zap.
// A nil *Logger is a no-op.
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	if config.Org == "" {
		config.Org = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the configured mode. Storage failures are
// logged, never returned: auditing must not fail the audited operation.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	mode := l.config.Org
	if mode == ModeOff {
		return
	}
	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func ptr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// OrgCreated logs a new organization.
func (l *Logger) OrgCreated(ctx context.Context, org models.Organization, actorID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(org.ID),
		EventType:      audit.EventOrgCreated,
		ActorID:        ptr(actorID),
		Success:        true,
		Details: map[string]string{
			"name":           org.Name,
			"auto_generated": fmt.Sprint(org.IsAutoGeneratedOrganization),
		},
	})
}

// OrgSetupIncomplete logs an organization left partially provisioned.
func (l *Logger) OrgSetupIncomplete(ctx context.Context, orgID, actorID primitive.ObjectID, step string, cause error) {
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventOrgSetupIncomplete,
		ActorID:        ptr(actorID),
		Success:        false,
		FailureReason:  cause.Error(),
		Details:        map[string]string{"step": step},
	})
}

// OrgProvisioned logs a reconciliation that created missing pieces.
func (l *Logger) OrgProvisioned(ctx context.Context, orgID, actorID primitive.ObjectID, created []string) {
	details := map[string]string{}
	for i, c := range created {
		details[fmt.Sprintf("created_%d", i)] = c
	}
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventOrgProvisioned,
		ActorID:        ptr(actorID),
		Success:        true,
		Details:        details,
	})
}

func (l *Logger) OrgUpdated(ctx context.Context, orgID primitive.ObjectID, fields []string) {
	details := map[string]string{}
	for _, f := range fields {
		details[f] = "changed"
	}
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventOrgUpdated,
		Success:        true,
		Details:        details,
	})
}

func (l *Logger) LogoUploaded(ctx context.Context, orgID primitive.ObjectID, assetID, previousAssetID string) {
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventOrgLogoUploaded,
		Success:        true,
		Details:        map[string]string{"asset_id": assetID, "previous_asset_id": previousAssetID},
	})
}

func (l *Logger) LogoDeleted(ctx context.Context, orgID primitive.ObjectID, assetID string) {
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventOrgLogoDeleted,
		Success:        true,
		Details:        map[string]string{"asset_id": assetID},
	})
}

func (l *Logger) SettingUpdated(ctx context.Context, orgID primitive.ObjectID, key string) {
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventOrgSettingUpdated,
		Success:        true,
		Details:        map[string]string{"key": key},
	})
}

func (l *Logger) MemberJoined(ctx context.Context, orgID, userID primitive.ObjectID, role models.MemberRole) {
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(orgID),
		EventType:      audit.EventMemberJoinedOrg,
		ActorID:        ptr(userID),
		Success:        true,
		Details:        map[string]string{"role": string(role)},
	})
}

// OnOrgDeleted records a deletion published on the event bus.
// It is an events.Handler.
func (l *Logger) OnOrgDeleted(ctx context.Context, e events.Event) error {
	d, ok := e.(events.OrgDeleted)
	if !ok {
		return fmt.Errorf("unexpected event %T", e)
	}
	l.Log(ctx, audit.Event{
		OrganizationID: ptr(d.OrgID),
		EventType:      audit.EventOrgDeleted,
		Success:        true,
	})
	return nil
}
