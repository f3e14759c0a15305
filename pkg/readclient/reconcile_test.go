package readclient

import (
	"testing"

	"github.com/google/uuid"
)

func TestReconcile(t *testing.T) {
	settled, pending, twice := uuid.New(), uuid.New(), uuid.New()
	stranger := uuid.New()

	snap := Snapshot{
		Products: []Product{{ID: settled}, {ID: pending}, {ID: twice}},
		Orders: []Order{
			{ID: uuid.New(), ProductID: settled},
			{ID: uuid.New(), ProductID: twice},
			{ID: uuid.New(), ProductID: twice},
			{ID: uuid.New(), ProductID: stranger},
		},
	}

	v := Reconcile(snap)
	if v.Products != 3 || v.Orders != 4 {
		t.Errorf("counts: %d products, %d orders", v.Products, v.Orders)
	}
	if len(v.Pending) != 1 || v.Pending[0].ID != pending {
		t.Errorf("pending: %+v", v.Pending)
	}
	if len(v.Duplicated) != 1 || v.Duplicated[twice] != 2 {
		t.Errorf("duplicated: %+v", v.Duplicated)
	}
	if len(v.Orphans) != 1 || v.Orphans[0].ProductID != stranger {
		t.Errorf("orphans: %+v", v.Orphans)
	}
	if v.Settled() {
		t.Error("view should not be settled")
	}
}

func TestReconcile_Settled(t *testing.T) {
	id := uuid.New()
	v := Reconcile(Snapshot{
		Products: []Product{{ID: id}},
		Orders:   []Order{{ID: uuid.New(), ProductID: id}},
	})
	if !v.Settled() {
		t.Errorf("expected settled view, got %+v", v)
	}
	if !Reconcile(Snapshot{}).Settled() {
		t.Error("empty snapshot should be settled")
	}
}
