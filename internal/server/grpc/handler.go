package grpc

import (
	"context"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var _ LegacyServiceServer = (*GRPCServer)(nil)

func ownerID(ctx context.Context) (string, error) {
	id, ok := OwnerIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing owner")
	}
	return id, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]any{"status": "OK"})
}

// --- owner ---

func (s *GRPCServer) CheckIn(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	// The interceptor already recorded the check-in; report the new state.
	return s.OwnerStatus(ctx, nil)
}

func (s *GRPCServer) OwnerStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.owners.Status(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(ownerStatusView(st))
}

func (s *GRPCServer) SetCheckInFrequency(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	days, err := getInt(req, "days")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.owners.SetCheckInFrequency(ctx, id, days); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// --- trustees ---

func (s *GRPCServer) AddTrustee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	date, err := getTime(req, "trigger_date")
	if err != nil {
		return nil, toStatus(err)
	}
	t, err := s.trustees.Add(ctx, id, &models.Trustee{
		Name:                getString(req, "name"),
		Email:               getString(req, "email"),
		Relationship:        getString(req, "relationship"),
		Phone:               getString(req, "phone"),
		AccessLevel:         models.AccessLevel(getString(req, "access_level")),
		NotificationTrigger: models.NotificationTrigger(getString(req, "notification_trigger")),
		TriggerDate:         date,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(trusteeView(t))
}

func (s *GRPCServer) ListTrustees(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.trustees.List(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(listView("trustees", list, trusteeView))
}

func (s *GRPCServer) UpdateTrustee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	date, err := getTime(req, "trigger_date")
	if err != nil {
		return nil, toStatus(err)
	}
	u := services.TrusteeUpdate{
		Name:         optString(req, "name"),
		Email:        optString(req, "email"),
		Relationship: optString(req, "relationship"),
		Phone:        optString(req, "phone"),
		TriggerDate:  date,
	}
	if v := optString(req, "access_level"); v != nil {
		level := models.AccessLevel(*v)
		u.AccessLevel = &level
	}
	if v := optString(req, "notification_trigger"); v != nil {
		trigger := models.NotificationTrigger(*v)
		u.NotificationTrigger = &trigger
	}

	t, err := s.trustees.Update(ctx, id, getString(req, "trustee_id"), u)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(trusteeView(t))
}

func (s *GRPCServer) RemoveTrustee(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.trustees.Remove(ctx, id, getString(req, "trustee_id")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) RequestVerification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	trusteeID := getString(req, "trustee_id")
	code, err := s.trustees.RequestVerification(ctx, id, trusteeID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"trustee_id": trusteeID, "code": code})
}

func (s *GRPCServer) VerifyTrustee(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.trustees.Verify(ctx, getString(req, "trustee_id"), getString(req, "code")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) DeclineTrustee(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.trustees.Decline(ctx, getString(req, "trustee_id"), getString(req, "code")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) NotifyTrustee(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.trustees.NotifyManually(ctx, id, getString(req, "trustee_id")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// --- items and grants ---

func (s *GRPCServer) CreateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	it, err := s.release.CreateItem(ctx, id, &models.ProtectedItem{
		Title:      getString(req, "title"),
		Type:       getString(req, "type"),
		IsPublic:   getBool(req, "is_public"),
		StorageKey: getString(req, "storage_key"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(itemView(it))
}

func (s *GRPCServer) SetItemPublic(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.release.SetPublic(ctx, id, getString(req, "item_id"), getBool(req, "is_public")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) AddGrant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	date, err := getTime(req, "trigger_date")
	if err != nil {
		return nil, toStatus(err)
	}
	g, err := s.release.AddGrant(ctx, id, &models.AccessGrant{
		ItemID:        getString(req, "item_id"),
		TrusteeID:     getString(req, "trustee_id"),
		AccessTrigger: models.AccessTrigger(getString(req, "access_trigger")),
		TriggerDate:   date,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(grantView(g))
}

func (s *GRPCServer) ManualRelease(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.release.ManualRelease(ctx, id, getString(req, "item_id"), getString(req, "trustee_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(grantView(g))
}

func (s *GRPCServer) RevokeAccess(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.release.Revoke(ctx, id, getString(req, "item_id"), getString(req, "trustee_id")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) CanAccess(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	ok, err := s.release.CanAccess(ctx, getString(req, "item_id"), getString(req, "trustee_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *GRPCServer) AccessibleItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.release.AccessibleItems(ctx, id, getString(req, "trustee_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(listView("items", items, itemView))
}

func (s *GRPCServer) GetItemURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	url, err := s.release.DownloadURL(ctx, getString(req, "item_id"), getString(req, "trustee_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"url": url})
}

// --- assets and conflicts ---

func (s *GRPCServer) CreateAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := getDesignation(req, "designation")
	if err != nil {
		return nil, toStatus(err)
	}
	a, err := s.conflicts.CreateAsset(ctx, id, &models.Asset{
		Title:           getString(req, "title"),
		AssetType:       getString(req, "asset_type"),
		InstitutionName: getString(req, "institution_name"),
		Designation:     d,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(assetView(a))
}

func (s *GRPCServer) UpdateBeneficiaries(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	d, err := getDesignation(req, "designation")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.conflicts.UpdateBeneficiaries(ctx, id, getString(req, "asset_id"), d); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) CheckAssetConflicts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	will, err := getStrings(req, "will_beneficiaries")
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.conflicts.CheckAsset(ctx, id, getString(req, "asset_id"), will)
	if err != nil {
		return nil, toStatus(err)
	}
	out := listView("conflicts", res.Records, conflictView)
	out["status"] = string(res.Status)
	return toStruct(out)
}

func (s *GRPCServer) ListConflicts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.conflicts.List(ctx, id, getBool(req, "unresolved_only"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(listView("conflicts", list, conflictView))
}

func (s *GRPCServer) MarkConflictInProgress(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.conflicts.MarkInProgress(ctx, id, getString(req, "conflict_id")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) ResolveConflict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.conflicts.Resolve(ctx, id, getString(req, "conflict_id"), getString(req, "notes"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(conflictView(c))
}

func (s *GRPCServer) ConflictSummary(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := s.conflicts.Summary(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(summaryView(sum))
}
