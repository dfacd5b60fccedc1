package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vovakirdan/tile2048/internal/reward"
	"github.com/vovakirdan/tile2048/internal/session"
)

const (
	alice = "0x52908400098527886E0F7030069857D2E4169EE7"
	bob   = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

func TestSaveResultAndLeaderboard(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	records := []session.ResultRecord{
		{SessionID: "a", GameID: "2048_classic", Account: alice, Score: 1200, MaxTile: 128, Moves: 90, Status: "lost", Seed: 1, EndedAt: base},
		{SessionID: "b", GameID: "2048_classic", Account: bob, Score: 3000, MaxTile: 256, Moves: 200, Status: "lost", Seed: 2, EndedAt: base.Add(time.Minute)},
		{SessionID: "c", GameID: "2048_endless", Score: 9000, MaxTile: 1024, Moves: 600, Status: "lost", Seed: 3, EndedAt: base.Add(2 * time.Minute)},
		{SessionID: "d", GameID: "2048_classic", Account: alice, Score: 1200, MaxTile: 128, Moves: 80, Status: "abandoned", Seed: 4, EndedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		if err := store.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult() failed: %v", err)
		}
	}

	classic, err := store.Leaderboard(ctx, "2048_classic", 10)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(classic) != 3 {
		t.Fatalf("Expected 3 classic entries, got %d", len(classic))
	}
	wantOrder := []string{"b", "a", "d"} // equal scores: earlier game first
	for i, want := range wantOrder {
		if classic[i].SessionID != want || classic[i].Rank != i+1 {
			t.Errorf("entry %d = %s rank %d, want %s rank %d", i, classic[i].SessionID, classic[i].Rank, want, i+1)
		}
	}
	if !classic[0].EndedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("EndedAt = %v", classic[0].EndedAt)
	}
	if classic[0].Account != "0x8617e340b3d01fa5f11f306f4090fd50e238070d" {
		t.Errorf("account should be stored lower-case, got %s", classic[0].Account)
	}

	all, err := store.Leaderboard(ctx, "", 2)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(all) != 2 || all[0].SessionID != "c" || all[1].SessionID != "b" {
		t.Errorf("overall leaderboard = %+v", all)
	}
}

func TestRestartedSessionRecordsEachGame(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := store.SaveGameResult(ctx, GameResult{SessionID: "same", GameID: "2048_classic", Score: i, Status: "lost"}); err != nil {
			t.Fatalf("SaveGameResult() #%d failed: %v", i, err)
		}
	}
	board, _ := store.Leaderboard(ctx, "2048_classic", 10)
	if len(board) != 2 {
		t.Errorf("Expected 2 rows for one session, got %d", len(board))
	}
}

func TestAccountHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	for i := 0; i < 5; i++ {
		store.SaveGameResult(ctx, GameResult{
			SessionID: "s",
			GameID:    "2048_classic",
			Account:   alice,
			Score:     i * 100,
			Status:    "lost",
			EndedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	store.SaveGameResult(ctx, GameResult{SessionID: "x", GameID: "2048_classic", Account: bob, Score: 1, Status: "lost", EndedAt: base})

	games, total, err := store.AccountHistory(ctx, alice, 2, 1)
	if err != nil {
		t.Fatalf("AccountHistory() failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(games) != 2 || games[0].Score != 300 || games[1].Score != 200 {
		t.Errorf("page = %+v", games)
	}

	// lookups ignore checksum casing
	_, total, err = store.AccountHistory(ctx, "0x52908400098527886e0f7030069857d2e4169ee7", 0, 0)
	if err != nil || total != 5 {
		t.Errorf("lower-case lookup total = %d, %v", total, err)
	}
}

func TestAccountProfile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	empty, err := store.AccountProfile(ctx, alice)
	if err != nil {
		t.Fatalf("AccountProfile() failed: %v", err)
	}
	if empty.TotalGames != 0 || !empty.LastPlayed.IsZero() {
		t.Errorf("empty profile = %+v", empty)
	}

	store.SaveGameResult(ctx, GameResult{SessionID: "1", GameID: "2048_classic", Account: alice, Score: 20000, MaxTile: 2048, Status: "won", EndedAt: base})
	store.SaveGameResult(ctx, GameResult{SessionID: "2", GameID: "2048_classic", Account: alice, Score: 500, MaxTile: 64, Status: "lost", EndedAt: base.Add(time.Hour)})
	store.RecordClaim(ctx, reward.Claim{SessionID: "1", Account: alice, Score: 20000, MaxTile: 2048, EndedAt: base.Unix()})

	p, err := store.AccountProfile(ctx, alice)
	if err != nil {
		t.Fatalf("AccountProfile() failed: %v", err)
	}
	if p.TotalGames != 2 || p.Wins != 1 || p.HighScore != 20000 || p.BestTile != 2048 || p.TotalScore != 20500 {
		t.Errorf("profile = %+v", p)
	}
	if !p.FirstPlayed.Equal(base) || !p.LastPlayed.Equal(base.Add(time.Hour)) {
		t.Errorf("played range = %v .. %v", p.FirstPlayed, p.LastPlayed)
	}
	if p.Claims != 1 || p.PendingClaims != 1 {
		t.Errorf("claims = %d pending = %d", p.Claims, p.PendingClaims)
	}
}

func TestClaims(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i, account := range []string{alice, bob, alice} {
		id, err := store.RecordClaim(ctx, reward.Claim{
			SessionID: fmt.Sprintf("s%d", i),
			GameID:    "2048_classic",
			Account:   account,
			Score:     1000 * (i + 1),
			MaxTile:   128,
			EndedAt:   1700000000,
		})
		if err != nil {
			t.Fatalf("RecordClaim() failed: %v", err)
		}
		ids = append(ids, id)
	}

	if err := store.MarkClaim(ctx, ids[0], reward.StatusPaid); err != nil {
		t.Fatalf("MarkClaim() failed: %v", err)
	}

	pending, err := store.PendingClaims(ctx, 10)
	if err != nil {
		t.Fatalf("PendingClaims() failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != ids[1] || pending[1].ID != ids[2] {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].Status != reward.StatusPending || pending[0].EndedAt.Unix() != 1700000000 {
		t.Errorf("claim = %+v", pending[0])
	}

	if err := store.MarkClaim(ctx, 9999, reward.StatusPaid); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkClaim(missing) = %v, want ErrNotFound", err)
	}
}

func TestLedgerClientOverStore(t *testing.T) {
	store := openTestStore(t)
	client := reward.NewLedgerClient(store, alice, nil)
	defer client.Close()

	rc, err := client.Submit(context.Background(), reward.Claim{
		SessionID: "s1",
		Account:   alice,
		Score:     4096,
		MaxTile:   512,
		EndedAt:   1700000000,
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	pending, _ := store.PendingClaims(context.Background(), 0)
	if len(pending) != 1 || pending[0].ID != rc.ClaimID {
		t.Errorf("pending = %+v, receipt = %+v", pending, rc)
	}
}
