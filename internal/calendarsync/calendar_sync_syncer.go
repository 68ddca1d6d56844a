package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	calendarsyncerrors "go-leave/internal/calendarsync/errors"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/shared/dateutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"gorm.io/gorm"
)

// LeaveStore is the slice of leave.Repository the syncer needs.
type LeaveStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*leave.LeaveRequest, error)
	SetExternalEventID(ctx context.Context, id uuid.UUID, eventID string) error
}

//go:generate mockgen -source=calendar_sync_syncer.go -destination=mock/calendar_sync_syncer_mock.go -package=mock
type Syncer interface {
	SyncLeaveRequest(ctx context.Context, requestID string) error
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphEvent struct {
	Subject  string        `json:"subject"`
	Body     graphBody     `json:"body"`
	Start    graphDateTime `json:"start"`
	End      graphDateTime `json:"end"`
	IsAllDay bool          `json:"isAllDay"`
}

type graphEventCreated struct {
	ID string `json:"id"`
}

type syncer struct {
	store    LeaveStore
	enabled  bool
	provider config.GraphConfig
	http     *http.Client
	logger   *zap.Logger

	tokensOnce sync.Once
	tokens     oauth2.TokenSource
}

func NewSyncer(store LeaveStore, enabled bool, provider config.GraphConfig, logger ...*zap.Logger) Syncer {
	l := zap.L().Named("calendarsync.syncer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("calendarsync.syncer")
	}
	return &syncer{
		store:    store,
		enabled:  enabled,
		provider: provider,
		http:     &http.Client{Timeout: provider.Timeout},
		logger:   l,
	}
}

// tokenSource caches provider tokens across syncs until they expire.
func (s *syncer) tokenSource() oauth2.TokenSource {
	s.tokensOnce.Do(func() {
		cc := clientcredentials.Config{
			ClientID:     s.provider.ClientID,
			ClientSecret: s.provider.ClientSecret,
			TokenURL:     s.provider.TokenEndpoint(),
			Scopes:       []string{s.provider.Scope},
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.http)
		s.tokens = cc.TokenSource(ctx)
	})
	return s.tokens
}

// SyncLeaveRequest mirrors an approved request into the owner's calendar.
// Requests that already carry an event id are left alone.
func (s *syncer) SyncLeaveRequest(ctx context.Context, requestID string) error {
	if !s.enabled {
		s.logger.Info("calendar sync disabled, skipping sync", zap.String("leave_id", requestID))
		return nil
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return calendarsyncerrors.ErrLeaveNotApproved
	}
	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return calendarsyncerrors.ErrLeaveNotApproved
		}
		s.logger.Error("calendar sync lookup failed", zap.String("leave_id", requestID), zap.Error(err))
		return err
	}
	if l.Status != leave.StatusApproved {
		s.logger.Warn("calendar sync for non approved request",
			zap.String("leave_id", requestID),
			zap.String("status", l.Status),
		)
		return calendarsyncerrors.ErrLeaveNotApproved
	}
	if l.ExternalCalendarEventID != nil && *l.ExternalCalendarEventID != "" {
		s.logger.Info("calendar event already exists, skipping",
			zap.String("leave_id", requestID),
			zap.String("event_id", *l.ExternalCalendarEventID),
		)
		return nil
	}
	if !s.provider.Configured() {
		return calendarsyncerrors.ErrProviderNotConfigured
	}

	token, err := s.tokenSource().Token()
	if err != nil {
		s.logger.Error("calendar provider token failed", zap.String("leave_id", requestID), zap.Error(err))
		return calendarsyncerrors.ErrTokenError.WithCause(err)
	}

	eventID, err := s.createEvent(ctx, token, l)
	if err != nil {
		return err
	}

	if err := s.store.SetExternalEventID(ctx, l.ID, eventID); err != nil {
		s.logger.Error("calendar event id persist failed",
			zap.String("leave_id", requestID),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("leave request synced to calendar",
		zap.String("leave_id", requestID),
		zap.String("event_id", eventID),
	)
	return nil
}

func (s *syncer) createEvent(ctx context.Context, token *oauth2.Token, l *leave.LeaveRequest) (string, error) {
	policyName := "Leave"
	if l.Policy != nil {
		policyName = l.Policy.Name
	}
	content := "Leave request"
	if l.Reason != nil && *l.Reason != "" {
		content = *l.Reason
	}

	body, err := json.Marshal(graphEvent{
		Subject:  "Leave: " + policyName,
		Body:     graphBody{ContentType: "HTML", Content: content},
		Start:    graphDateTime{DateTime: dateutil.FormatDate(l.StartDate) + "T00:00:00", TimeZone: "UTC"},
		End:      graphDateTime{DateTime: dateutil.FormatDate(l.EndDate) + "T23:59:59", TimeZone: "UTC"},
		IsAllDay: !l.HalfDay,
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/users/%s/calendar/events",
		strings.TrimRight(s.provider.BaseURL, "/"),
		url.PathEscape(l.UserEmail),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	token.SetAuthHeader(req)

	res, err := s.http.Do(req)
	if err != nil {
		s.logger.Error("calendar event request failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return "", calendarsyncerrors.ErrEventError.WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		s.logger.Error("calendar event rejected",
			zap.String("leave_id", l.ID.String()),
			zap.Int("status", res.StatusCode),
			zap.ByteString("body", raw),
		)
		return "", calendarsyncerrors.ErrEventError.WithDetails(map[string]any{"status": res.StatusCode})
	}

	var created graphEventCreated
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil || created.ID == "" {
		s.logger.Error("calendar event response unreadable", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return "", calendarsyncerrors.ErrEventError
	}
	return created.ID, nil
}
