package server

import (
	"errors"
	"reflect"
	"testing"

	"textot/pkg/edit"
	"textot/pkg/ot"
	"textot/pkg/text"
)

func TestDocument_HandleClientEdit(t *testing.T) {
	d := New[string](text.Applier{})

	out, err := d.HandleClientEdit(clientEdit("a", "a:1", 0, "", ot.Operation{ot.Insert("world")}))
	if err != nil {
		t.Fatalf("HandleClientEdit() error = %v", err)
	}
	committed := edit.ServerEdit{ID: "a:1", Operation: ot.Operation{ot.Insert("world")}, ParentHash: "", ChildHash: "world", StartIndex: 0, NextIndex: 1}
	want := []edit.ServerEditMessage{
		{SourceUID: "a", Edit: committed, Mode: edit.BroadcastOmittingSource},
		{SourceUID: "a", Edit: committed, Ack: true, Mode: edit.ReplyToSource},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("HandleClientEdit() = %+v, want %+v", out, want)
	}

	// b edited the empty document without seeing a's edit.
	out, err = d.HandleClientEdit(clientEdit("b", "b:1", 0, "", ot.Operation{ot.Insert("hello")}))
	if err != nil {
		t.Fatalf("HandleClientEdit() error = %v", err)
	}
	if d.State() != "helloworld" {
		t.Errorf("State() = %q, want helloworld", d.State())
	}
	got := out[1].Edit
	if got.StartIndex != 1 || got.NextIndex != 2 || got.ParentHash != "world" || got.ChildHash != "helloworld" {
		t.Errorf("committed edit = %+v", got)
	}
	if !ot.Equal(got.Operation, ot.Operation{ot.Insert("hello")}) {
		t.Errorf("committed operation = %s, want [i\"hello\"]", got.Operation)
	}
}

func TestDocument_HandleClientEdit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		msg        edit.ClientEditMessage
		outOfOrder bool
	}{
		{name: "start past log", msg: clientEdit("a", "a:2", 5, "ab", ot.Operation{ot.Insert("x")}), outOfOrder: true},
		{name: "negative start", msg: clientEdit("a", "a:2", -1, "", ot.Operation{ot.Insert("x")})},
		{name: "parent mismatch", msg: clientEdit("a", "a:2", 1, "zz", ot.Operation{ot.Insert("x")})},
		{name: "overshoot", msg: clientEdit("a", "a:2", 1, "ab", ot.Operation{ot.Retain(2), ot.Delete(1)})},
		{name: "malformed", msg: clientEdit("a", "a:2", 1, "ab", ot.Operation{ot.Retain(-2)})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := New[string](text.Applier{})
			mustCommit(t, d, clientEdit("a", "a:1", 0, "", ot.Operation{ot.Insert("ab")}))

			_, err := d.HandleClientEdit(tc.msg)
			if tc.outOfOrder {
				if !edit.IsOutOfOrder(err) {
					t.Fatalf("HandleClientEdit() error = %v, want out of order", err)
				}
			} else if !errors.Is(err, edit.ErrUnexpected) {
				t.Fatalf("HandleClientEdit() error = %v, want ErrUnexpected", err)
			}
			if d.Len() != 1 || d.State() != "ab" || d.HasEdit("a:2") {
				t.Errorf("failed edit changed the document: len %d state %q", d.Len(), d.State())
			}
		})
	}
}

func TestDocument_HandleClientEdit_Duplicate(t *testing.T) {
	d := New[string](text.Applier{})
	msg := clientEdit("a", "a:1", 0, "", ot.Operation{ot.Insert("x")})
	first := mustCommit(t, d, msg)

	again, err := d.HandleClientEdit(msg)
	if err != nil {
		t.Fatalf("HandleClientEdit(duplicate) error = %v", err)
	}
	if len(again) != 1 || !again[0].Ack || again[0].Mode != edit.ReplyToSource {
		t.Fatalf("HandleClientEdit(duplicate) = %+v, want a single ack", again)
	}
	if !reflect.DeepEqual(again[0].Edit, first[1].Edit) {
		t.Errorf("duplicate ack carries %+v, want %+v", again[0].Edit, first[1].Edit)
	}
	if d.Len() != 1 || d.State() != "x" {
		t.Errorf("duplicate changed the document: len %d state %q", d.Len(), d.State())
	}
}

func TestDocument_GetEditRange(t *testing.T) {
	d := seeded(t)

	tests := []struct {
		name        string
		start, stop int
		want        edit.ServerEdit
		wantErr     bool
	}{
		{
			name: "identity at start", start: 0, stop: 0,
			want: edit.ServerEdit{ID: edit.IdentityID, ParentHash: "", ChildHash: "", StartIndex: 0, NextIndex: 0},
		},
		{
			name: "identity at end", start: 3, stop: 3,
			want: edit.ServerEdit{ID: edit.IdentityID, ParentHash: "abc", ChildHash: "abc", StartIndex: 3, NextIndex: 3},
		},
		{
			name: "single", start: 1, stop: 2,
			want: edit.ServerEdit{ID: "a:2", Operation: ot.Operation{ot.Retain(1), ot.Insert("b")}, ParentHash: "a", ChildHash: "ab", StartIndex: 1, NextIndex: 2},
		},
		{
			name: "composed", start: 0, stop: 3,
			want: edit.ServerEdit{ID: "a:3", Operation: ot.Operation{ot.Insert("abc")}, ParentHash: "", ChildHash: "abc", StartIndex: 0, NextIndex: 3},
		},
		{name: "past end", start: 2, stop: 4, wantErr: true},
		{name: "inverted", start: 2, stop: 1, wantErr: true},
		{name: "negative", start: -1, stop: 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := d.GetEditRange(tc.start, tc.stop)
			if (err != nil) != tc.wantErr {
				t.Fatalf("GetEditRange() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("GetEditRange(%d, %d) = %+v, want %+v", tc.start, tc.stop, got, tc.want)
			}
		})
	}
}

func TestDocument_Lookup(t *testing.T) {
	d := seeded(t)

	if !d.HasEdit("a:2") || d.HasEdit("nope") {
		t.Errorf("HasEdit() mismatch")
	}
	if got := d.IndexOfEdit("a:3"); got != 2 {
		t.Errorf("IndexOfEdit(a:3) = %d, want 2", got)
	}
	if got := d.IndexOfEdit("nope"); got != -1 {
		t.Errorf("IndexOfEdit(nope) = %d, want -1", got)
	}
	if e, err := d.GetEdit("a:1"); err != nil || e.ChildHash != "a" {
		t.Errorf("GetEdit(a:1) = %+v, %v", e, err)
	}
	if _, err := d.GetEdit("nope"); !errors.Is(err, edit.ErrUnexpected) {
		t.Errorf("GetEdit(nope) error = %v, want ErrUnexpected", err)
	}
}

func TestDocument_HandleServerEdits(t *testing.T) {
	uncommitted := edit.UpdateEdit{ID: "b:1", Operation: ot.Operation{ot.Retain(1), ot.Insert("Z")}, ParentHash: "a", StartIndex: 1}

	tests := []struct {
		name      string
		req       edit.ClientConnectionRequest
		wantIDs   []string
		wantAcks  []bool
		wantModes []edit.Mode
		wantState string
		wantErr   error
	}{
		{
			name:      "no outstanding edit",
			req:       edit.ClientConnectionRequest{SourceUID: "b", NextIndex: 1},
			wantIDs:   []string{"a:3"},
			wantAcks:  []bool{false},
			wantModes: []edit.Mode{edit.ReplyToSource},
			wantState: "abc",
		},
		{
			name:      "up to date",
			req:       edit.ClientConnectionRequest{SourceUID: "b", NextIndex: 3},
			wantIDs:   []string{edit.IdentityID},
			wantAcks:  []bool{false},
			wantModes: []edit.Mode{edit.ReplyToSource},
			wantState: "abc",
		},
		{
			name:      "committed in the middle",
			req:       edit.ClientConnectionRequest{SourceUID: "a", NextIndex: 0, Edit: &edit.UpdateEdit{ID: "a:2"}},
			wantIDs:   []string{"a:1", "a:2", "a:3"},
			wantAcks:  []bool{false, true, false},
			wantModes: []edit.Mode{edit.ReplyToSource, edit.ReplyToSource, edit.ReplyToSource},
			wantState: "abc",
		},
		{
			name:      "committed at next index",
			req:       edit.ClientConnectionRequest{SourceUID: "a", NextIndex: 1, Edit: &edit.UpdateEdit{ID: "a:2"}},
			wantIDs:   []string{"a:2", "a:3"},
			wantAcks:  []bool{true, false},
			wantModes: []edit.Mode{edit.ReplyToSource, edit.ReplyToSource},
			wantState: "abc",
		},
		{
			name:      "committed last",
			req:       edit.ClientConnectionRequest{SourceUID: "a", NextIndex: 2, Edit: &edit.UpdateEdit{ID: "a:3"}},
			wantIDs:   []string{"a:3"},
			wantAcks:  []bool{true},
			wantModes: []edit.Mode{edit.ReplyToSource},
			wantState: "abc",
		},
		{
			name:      "not committed",
			req:       edit.ClientConnectionRequest{SourceUID: "b", NextIndex: 1, Edit: &uncommitted},
			wantIDs:   []string{"a:3", "b:1", "b:1"},
			wantAcks:  []bool{false, false, true},
			wantModes: []edit.Mode{edit.ReplyToSource, edit.BroadcastOmittingSource, edit.ReplyToSource},
			wantState: "aZbc",
		},
		{
			name:    "committed before next index",
			req:     edit.ClientConnectionRequest{SourceUID: "a", NextIndex: 2, Edit: &edit.UpdateEdit{ID: "a:1"}},
			wantErr: edit.ErrUnexpected,
		},
		{
			name:    "next index past log",
			req:     edit.ClientConnectionRequest{SourceUID: "a", NextIndex: 4},
			wantErr: edit.ErrOutOfOrder,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := seeded(t)
			out, err := d.HandleServerEdits(tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("HandleServerEdits() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("HandleServerEdits() error = %v", err)
			}

			var ids []string
			var acks []bool
			var modes []edit.Mode
			for _, m := range out {
				ids = append(ids, m.Edit.ID)
				acks = append(acks, m.Ack)
				modes = append(modes, m.Mode)
			}
			if !reflect.DeepEqual(ids, tc.wantIDs) || !reflect.DeepEqual(acks, tc.wantAcks) || !reflect.DeepEqual(modes, tc.wantModes) {
				t.Errorf("HandleServerEdits() ids %v acks %v modes %v, want %v %v %v",
					ids, acks, modes, tc.wantIDs, tc.wantAcks, tc.wantModes)
			}
			if d.State() != tc.wantState {
				t.Errorf("State() = %q, want %q", d.State(), tc.wantState)
			}
			for i := 1; i < len(out); i++ {
				if out[i].Edit.StartIndex != out[i-1].Edit.NextIndex && out[i].Mode == out[i-1].Mode {
					t.Errorf("message %d starts at %d, previous ended at %d", i, out[i].Edit.StartIndex, out[i-1].Edit.NextIndex)
				}
			}
		})
	}
}

// seeded returns a document whose log is "a", "ab", "abc" committed by site a.
func seeded(t *testing.T) *Document[string] {
	t.Helper()
	d := New[string](text.Applier{})
	mustCommit(t, d, clientEdit("a", "a:1", 0, "", ot.Operation{ot.Insert("a")}))
	mustCommit(t, d, clientEdit("a", "a:2", 1, "a", ot.Operation{ot.Retain(1), ot.Insert("b")}))
	mustCommit(t, d, clientEdit("a", "a:3", 2, "ab", ot.Operation{ot.Retain(2), ot.Insert("c")}))
	return d
}

func clientEdit(source, id string, start int, parent edit.Hash, op ot.Operation) edit.ClientEditMessage {
	return edit.ClientEditMessage{
		SourceUID: source,
		Edit:      edit.UpdateEdit{ID: id, Operation: op, ParentHash: parent, StartIndex: start},
	}
}

func mustCommit(t *testing.T, d *Document[string], msg edit.ClientEditMessage) []edit.ServerEditMessage {
	t.Helper()
	out, err := d.HandleClientEdit(msg)
	if err != nil {
		t.Fatalf("HandleClientEdit(%s) error = %v", msg.Edit.ID, err)
	}
	return out
}
