package feedback

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func validNewFeedbackInput() NewFeedbackInput {
	return NewFeedbackInput{
		OrganizationID: "org-1",
		GiverID:        "emp-1",
		ReceiverID:     "emp-2",
		Content:        "great work on the release",
	}
}

func TestNewFeedback_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fb, err := NewFeedback("fb-1", validNewFeedbackInput(), now)
	if err != nil {
		t.Fatalf("NewFeedback returned error: %v", err)
	}

	if fb.ID() != "fb-1" {
		t.Fatalf("expected id fb-1, got %s", fb.ID())
	}
	if fb.GiverID() != "emp-1" || fb.ReceiverID() != "emp-2" {
		t.Fatalf("unexpected participants: %s -> %s", fb.GiverID(), fb.ReceiverID())
	}
	if fb.IsPolished() {
		t.Fatal("new feedback must not be polished")
	}
	if !fb.Snapshot().CreatedAt.Equal(now) {
		t.Fatal("expected created_at to use provided now")
	}
}

func TestNewFeedback_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*NewFeedbackInput)
		wantErr error
	}{
		{name: "blank organization", mutate: func(in *NewFeedbackInput) { in.OrganizationID = " " }, wantErr: ErrInvalidOrganization},
		{name: "blank giver", mutate: func(in *NewFeedbackInput) { in.GiverID = " " }, wantErr: ErrInvalidGiver},
		{name: "blank receiver", mutate: func(in *NewFeedbackInput) { in.ReceiverID = " " }, wantErr: ErrInvalidReceiver},
		{name: "self feedback", mutate: func(in *NewFeedbackInput) { in.ReceiverID = in.GiverID }, wantErr: ErrSelfFeedback},
		{name: "too short", mutate: func(in *NewFeedbackInput) { in.Content = "too short" }, wantErr: ErrInvalidContent},
		{name: "whitespace padding does not count", mutate: func(in *NewFeedbackInput) { in.Content = "   short    " }, wantErr: ErrInvalidContent},
		{name: "too long", mutate: func(in *NewFeedbackInput) { in.Content = strings.Repeat("x", maxContentRunes+1) }, wantErr: ErrInvalidContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := validNewFeedbackInput()
			tt.mutate(&in)

			_, err := NewFeedback("fb-1", in, time.Now().UTC())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewFeedback_ContentBoundaries(t *testing.T) {
	t.Parallel()

	in := validNewFeedbackInput()
	in.Content = strings.Repeat("あ", minContentRunes)
	if _, err := NewFeedback("fb-1", in, time.Now().UTC()); err != nil {
		t.Fatalf("exactly %d runes must pass, got %v", minContentRunes, err)
	}

	in.Content = strings.Repeat("あ", maxContentRunes)
	if _, err := NewFeedback("fb-2", in, time.Now().UTC()); err != nil {
		t.Fatalf("exactly %d runes must pass, got %v", maxContentRunes, err)
	}

	in.Content = strings.Repeat("あ", minContentRunes-1)
	if _, err := NewFeedback("fb-3", in, time.Now().UTC()); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent below minimum, got %v", err)
	}
}

func TestFeedback_UpdateContentClearsPolish(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fb, err := NewFeedback("fb-1", validNewFeedbackInput(), now)
	if err != nil {
		t.Fatalf("NewFeedback returned error: %v", err)
	}

	if err := fb.Polish("polished version of the feedback", now.Add(time.Minute)); err != nil {
		t.Fatalf("Polish returned error: %v", err)
	}
	if !fb.IsPolished() {
		t.Fatal("expected polished flag to be set")
	}
	if fb.Snapshot().PolishedContent != "polished version of the feedback" {
		t.Fatalf("unexpected polished content: %q", fb.Snapshot().PolishedContent)
	}

	later := now.Add(time.Hour)
	if err := fb.UpdateContent("revised content for the feedback", later); err != nil {
		t.Fatalf("UpdateContent returned error: %v", err)
	}
	if fb.IsPolished() || fb.Snapshot().PolishedContent != "" {
		t.Fatal("expected content update to discard the polished variant")
	}
	if fb.Content() != "revised content for the feedback" {
		t.Fatalf("unexpected content: %q", fb.Content())
	}
	if !fb.Snapshot().UpdatedAt.Equal(later) {
		t.Fatal("expected updated_at to advance")
	}
}

func TestFeedback_Polish_Invalid(t *testing.T) {
	t.Parallel()

	fb, err := NewFeedback("fb-1", validNewFeedbackInput(), time.Now().UTC())
	if err != nil {
		t.Fatalf("NewFeedback returned error: %v", err)
	}

	if err := fb.Polish("short", time.Now().UTC()); !errors.Is(err, ErrInvalidPolishedContent) {
		t.Fatalf("expected ErrInvalidPolishedContent, got %v", err)
	}
}

func TestFeedback_DeletedGuards(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fb, err := NewFeedback("fb-1", validNewFeedbackInput(), now)
	if err != nil {
		t.Fatalf("NewFeedback returned error: %v", err)
	}

	if err := fb.Delete(now.Add(time.Hour)); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !fb.Deleted() {
		t.Fatal("expected feedback to be deleted")
	}

	if err := fb.Delete(now); !errors.Is(err, ErrFeedbackDeleted) {
		t.Fatalf("expected ErrFeedbackDeleted on double delete, got %v", err)
	}
	if err := fb.UpdateContent("new content after delete", now); !errors.Is(err, ErrFeedbackDeleted) {
		t.Fatalf("expected ErrFeedbackDeleted on update, got %v", err)
	}
	if err := fb.Polish("polished content after delete", now); !errors.Is(err, ErrFeedbackDeleted) {
		t.Fatalf("expected ErrFeedbackDeleted on polish, got %v", err)
	}
}

func TestFeedback_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fb, err := NewFeedback("fb-1", validNewFeedbackInput(), now)
	if err != nil {
		t.Fatalf("NewFeedback returned error: %v", err)
	}
	if err := fb.Polish("polished version of the feedback", now.Add(time.Minute)); err != nil {
		t.Fatalf("Polish returned error: %v", err)
	}
	if err := fb.Delete(now.Add(time.Hour)); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	restored := ReconstituteFeedback(fb.Snapshot())
	if !reflect.DeepEqual(fb.Snapshot(), restored.Snapshot()) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", restored.Snapshot(), fb.Snapshot())
	}
}
