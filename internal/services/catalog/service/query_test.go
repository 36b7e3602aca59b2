package service

import (
	"context"
	"encoding/json"
	"testing"

	"localist/internal/services/catalog/domain"
)

type fakeStorage struct {
	gotList domain.ListQuery
	gotAgg  [2]int
}

func (f *fakeStorage) ListVenues(_ context.Context, q domain.ListQuery) ([]json.RawMessage, int, error) {
	f.gotList = q
	return nil, 0, nil
}

func (f *fakeStorage) AggByCity(_ context.Context, limit, minVenues int) ([]domain.CityCount, error) {
	f.gotAgg = [2]int{limit, minVenues}
	return nil, nil
}

func TestQueryClampsLimits(t *testing.T) {
	st := &fakeStorage{}
	q := NewQuery(st, QueryConfig{HardLimit: 50})

	_, _, _ = q.ListVenues(context.Background(), domain.ListQuery{Limit: 9999, Offset: -3})
	if st.gotList.Limit != 50 || st.gotList.Offset != 0 {
		t.Fatalf("ListVenues clamp = %+v", st.gotList)
	}

	_, _, _ = q.ListVenues(context.Background(), domain.ListQuery{Limit: 10, Offset: 20})
	if st.gotList.Limit != 10 || st.gotList.Offset != 20 {
		t.Fatalf("ListVenues passthrough = %+v", st.gotList)
	}

	_, _ = q.AggByCity(context.Background(), 0, 0)
	if st.gotAgg != [2]int{50, 1} {
		t.Fatalf("AggByCity clamp = %v", st.gotAgg)
	}
}

func TestNewQueryDefaultsHardLimit(t *testing.T) {
	q := NewQuery(&fakeStorage{}, QueryConfig{})
	if q.Cfg.HardLimit != 100 {
		t.Fatalf("HardLimit = %d, want 100", q.Cfg.HardLimit)
	}
}
