package services

import (
	"net/http"
	"testing"

	"github.com/huangang/tripplanner/internal/models"
)

func TestFriendService_RequestAndAccept(t *testing.T) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	f, err := svc.SendRequest(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if f.Status != models.FriendPending {
		t.Errorf("Status = %s, expected PENDING", f.Status)
	}
	if notifier.count(bob.ID, models.NotificationFriendRequest) != 1 {
		t.Error("expected FRIEND_REQUEST notification")
	}

	pending, _ := svc.ListPending(bob.ID)
	if len(pending) != 1 || pending[0].Requester == nil || pending[0].Requester.ID != alice.ID {
		t.Errorf("ListPending() = %+v", pending)
	}

	_, err = svc.Accept(f.ID, alice.ID)
	mustStatus(t, err, http.StatusForbidden)

	accepted, err := svc.Accept(f.ID, bob.ID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if accepted.AcceptedAt == nil {
		t.Error("AcceptedAt should be stamped")
	}
	if notifier.count(alice.ID, models.NotificationFriendAccepted) != 1 {
		t.Error("expected FRIEND_ACCEPTED notification for the requester")
	}

	_, err = svc.Accept(f.ID, bob.ID)
	mustStatus(t, err, http.StatusConflict)

	for _, uid := range []uint{alice.ID, bob.ID} {
		friends, err := svc.ListFriends(uid)
		if err != nil || len(friends) != 1 {
			t.Errorf("ListFriends(%d) = %d items, %v", uid, len(friends), err)
		}
	}
}

func TestFriendService_SendRequestRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewFriendService(db, nil)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := svc.SendRequest(alice.ID, alice.ID)
	mustStatus(t, err, http.StatusBadRequest)

	_, err = svc.SendRequest(alice.ID, 9999)
	mustStatus(t, err, http.StatusNotFound)

	f, err := svc.SendRequest(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	// one relation per pair, whichever side sends
	_, err = svc.SendRequest(bob.ID, alice.ID)
	mustStatus(t, err, http.StatusConflict)

	if _, err := svc.Block(f.ID, bob.ID); err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	_, err = svc.SendRequest(alice.ID, bob.ID)
	mustStatus(t, err, http.StatusForbidden)

	blocked, _ := isBlocked(db, bob.ID, alice.ID)
	if !blocked {
		t.Error("isBlocked should be symmetric")
	}
}

func TestFriendService_DeclineAndRemove(t *testing.T) {
	db := newTestDB(t)
	svc := NewFriendService(db, nil)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	f, _ := svc.SendRequest(alice.ID, bob.ID)
	declined, err := svc.Decline(f.ID, bob.ID)
	if err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	if declined.Status != models.FriendDeclined || declined.AcceptedAt != nil {
		t.Errorf("declined = %s, accepted_at %v", declined.Status, declined.AcceptedAt)
	}

	mustStatus(t, svc.Remove(f.ID, carol.ID), http.StatusForbidden)
	if err := svc.Remove(f.ID, alice.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := svc.SendRequest(bob.ID, alice.ID); err != nil {
		t.Errorf("request after removal should succeed, got %v", err)
	}
}
