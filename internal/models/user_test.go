package models

import "testing"

func TestValidateHandle(t *testing.T) {
	tests := []struct {
		handle string
		valid  bool
	}{
		{"alice", true},
		{"al", false},
		{"a1-b2_c3", true},
		{"0day", true},
		{"-leading", false},
		{"_leading", false},
		{"UPPER", false},
		{"has space", false},
		{"", false},
		{"exactly-thirty-two-characters-ab", true},
		{"this-handle-is-much-too-long-to-be-valid", false},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			if got := ValidateHandle(tt.handle); got != tt.valid {
				t.Errorf("ValidateHandle(%q) = %v, want %v", tt.handle, got, tt.valid)
			}
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	if got := NormalizeHandle("  Alice "); got != "alice" {
		t.Errorf("expected normalized handle alice, got %q", got)
	}
}

func TestUser_ContentItem(t *testing.T) {
	u := User{
		ID:          "u1",
		DisplayName: "Alice",
		Bio:         "makes breakbeats",
		Followers:   7,
	}

	item := u.ContentItem()
	if item.Kind != KindUser {
		t.Errorf("expected kind user, got %q", item.Kind)
	}
	if item.AuthorID != "u1" || item.ID != "u1" {
		t.Errorf("expected user to author itself, got %+v", item)
	}
	if item.Body != "makes breakbeats" {
		t.Errorf("expected bio as body, got %q", item.Body)
	}
	if item.LikeCount != 7 {
		t.Errorf("expected follower count mapped, got %d", item.LikeCount)
	}
}
