package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request fields are read leniently: a missing field is its zero value and
// the services decide what is required.

func getString(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func getBool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func getInt(s *structpb.Struct, key string) (int, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", common.ErrorValidation, key)
	}
	if n.NumberValue != float64(int(n.NumberValue)) {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, key)
	}
	return int(n.NumberValue), nil
}

// optString returns nil when key is absent, so callers can tell "not sent"
// from "sent empty".
func optString(s *structpb.Struct, key string) *string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	str := v.GetStringValue()
	return &str
}

func getTime(s *structpb.Struct, key string) (*time.Time, error) {
	raw := getString(s, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrorValidation, key, err)
	}
	t = t.UTC()
	return &t, nil
}

func getStrings(s *structpb.Struct, key string) ([]string, error) {
	list := s.GetFields()[key].GetListValue()
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a list of strings", common.ErrorValidation, key)
		}
		out = append(out, sv.StringValue)
	}
	return out, nil
}

func getDesignation(s *structpb.Struct, key string) (models.BeneficiaryDesignation, error) {
	var d models.BeneficiaryDesignation
	sv := s.GetFields()[key].GetStructValue()
	if sv == nil {
		return d, nil
	}
	raw, err := protojson.Marshal(sv)
	if err != nil {
		return d, fmt.Errorf("%w: %s: %v", common.ErrorValidation, key, err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("%w: %s: %v", common.ErrorValidation, key, err)
	}
	return d, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func strings2any(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func ownerStatusView(st *services.OwnerStatus) map[string]any {
	return map[string]any{
		"owner_id":                st.Owner.ID,
		"last_check_in":           formatTime(&st.Owner.LastCheckIn),
		"check_in_frequency_days": st.Owner.CheckInFrequencyDays,
		"activity":                st.Activity.String(),
		"deadline":                formatTime(&st.Deadline),
	}
}

func trusteeView(t *models.Trustee) map[string]any {
	return map[string]any{
		"id":                   t.ID,
		"name":                 t.Name,
		"email":                t.Email,
		"relationship":         t.Relationship,
		"phone":                t.Phone,
		"access_level":         string(t.AccessLevel),
		"notification_trigger": string(t.NotificationTrigger),
		"trigger_date":         formatTime(t.TriggerDate),
		"verification_status":  string(t.VerificationStatus),
		"notified":             t.Notified,
		"notified_at":          formatTime(t.NotifiedAt),
	}
}

func itemView(it *models.ProtectedItem) map[string]any {
	return map[string]any{
		"id":          it.ID,
		"title":       it.Title,
		"type":        it.Type,
		"is_public":   it.IsPublic,
		"storage_key": it.StorageKey,
	}
}

func grantView(g *models.AccessGrant) map[string]any {
	return map[string]any{
		"item_id":             g.ItemID,
		"trustee_id":          g.TrusteeID,
		"access_trigger":      string(g.AccessTrigger),
		"trigger_date":        formatTime(g.TriggerDate),
		"access_granted":      g.AccessGranted,
		"access_granted_date": formatTime(g.AccessGrantedDate),
		"revoked_at":          formatTime(g.RevokedAt),
	}
}

func assetView(a *models.Asset) map[string]any {
	return map[string]any{
		"id":               a.ID,
		"title":            a.Title,
		"asset_type":       a.AssetType,
		"institution_name": a.InstitutionName,
		"beneficiaries":    strings2any(a.Designation.Names()),
		"conflict_status":  string(a.ConflictStatus),
		"last_reviewed_at": formatTime(a.LastReviewedAt),
	}
}

func conflictView(c *models.ConflictRecord) map[string]any {
	var assetID any
	if c.AssetID != nil {
		assetID = *c.AssetID
	}
	return map[string]any{
		"id":               c.ID,
		"asset_id":         assetID,
		"conflict_type":    c.ConflictType,
		"description":      c.Description,
		"severity":         string(c.Severity),
		"status":           string(c.Status),
		"recommendations":  strings2any(c.Recommendations),
		"detected_at":      formatTime(&c.DetectedAt),
		"resolved_at":      formatTime(c.ResolvedAt),
		"resolution_notes": c.ResolutionNotes,
	}
}

func summaryView(s legacy.Summary) map[string]any {
	byType := make(map[string]any, len(s.ByType))
	for k, v := range s.ByType {
		byType[k] = v
	}
	return map[string]any{
		"total":      s.Total,
		"unresolved": s.Unresolved,
		"high":       s.High,
		"recent":     s.Recent,
		"by_type":    byType,
	}
}

func listView[T any](key string, in []T, view func(T) map[string]any) map[string]any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = view(v)
	}
	return map[string]any{key: out}
}

// toStruct builds the response message. Views only hold values structpb
// accepts, so a failure is an internal error.
func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}
