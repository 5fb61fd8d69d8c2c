package goals

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	db, err := store.Open(context.Background(), store.Options{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "goals.db"),
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, func() time.Time { return testNow }), db
}

func createGoal(t *testing.T, s *Service, name, target string) *model.Goal {
	t.Helper()
	g, err := s.Create(context.Background(), GoalInput{
		Owner: "ana", Name: name, Target: money.MustParse(target),
		TargetDate: model.Date(2026, time.December, 31),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return g
}

func contribute(t *testing.T, s *Service, id uuid.UUID, amount string) ContributionResult {
	t.Helper()
	res, err := s.Contribute(context.Background(), id, ContributionInput{Amount: money.MustParse(amount)})
	if err != nil {
		t.Fatalf("Contribute(%s): %v", amount, err)
	}
	return res
}

func TestScenarioE_ContributionAchievesGoal(t *testing.T) {
	s, _ := newService(t)
	g := createGoal(t, s, "emergency fund", "5000.00")

	res := contribute(t, s, g.ID, "5000.00")
	if !res.Achieved || !res.Goal.Achieved {
		t.Fatalf("goal not achieved: %+v", res)
	}
	if res.Goal.CurrentAmount != money.MustParse("5000.00") {
		t.Errorf("CurrentAmount = %s, want 5000.00", res.Goal.CurrentAmount)
	}
	if res.Goal.AchievedAt == nil || !res.Goal.AchievedAt.Equal(testNow) {
		t.Errorf("AchievedAt = %v, want %s", res.Goal.AchievedAt, testNow)
	}
	if res.Contribution.Description != DefaultContributionDescription || !res.Contribution.Date.Equal(model.Day(testNow)) {
		t.Errorf("contribution = %+v", res.Contribution)
	}

	stored, err := s.Get(context.Background(), g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Achieved || stored.AchievedAt == nil || stored.CurrentAmount != res.Goal.CurrentAmount {
		t.Errorf("stored goal = %+v", stored)
	}
}

func TestContribute_ClampsAndAchievesOnce(t *testing.T) {
	s, _ := newService(t)
	g := createGoal(t, s, "bike", "1000")

	if res := contribute(t, s, g.ID, "700"); res.Achieved || res.Goal.CurrentAmount != money.MustParse("700") {
		t.Fatalf("first contribution = %+v", res.Goal)
	}
	res := contribute(t, s, g.ID, "500")
	if !res.Achieved || res.Goal.CurrentAmount != money.MustParse("1000") {
		t.Fatalf("second contribution = %+v", res.Goal)
	}

	_, err := s.Contribute(context.Background(), g.ID, ContributionInput{Amount: 100})
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "goal" {
		t.Fatalf("contribution to achieved goal: err = %v, want ValidationError on goal", err)
	}

	rep, err := s.Report(context.Background(), g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Contributions) != 2 || rep.Contributed != money.MustParse("1200") {
		t.Errorf("contributions = %d totalling %s", len(rep.Contributions), rep.Contributed)
	}
	if rep.Pace.Status != PaceAchieved || rep.Progress.Percentage != 100 {
		t.Errorf("report = %+v", rep)
	}
}

func TestContribute_Validation(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	g := createGoal(t, s, "car", "20000")

	other := &model.Account{ID: uuid.New(), Owner: "bia", Name: "savings", Type: model.AccountSavings,
		Active: true, CreatedAt: testNow}
	if err := db.Queries().InsertAccount(ctx, other); err != nil {
		t.Fatal(err)
	}
	missing := uuid.New()

	tests := []struct {
		name string
		id   uuid.UUID
		in   ContributionInput
		want error
	}{
		{"zero amount", g.ID, ContributionInput{}, model.ErrValidation},
		{"negative amount", g.ID, ContributionInput{Amount: -5}, model.ErrValidation},
		{"future date", g.ID, ContributionInput{Amount: 100, Date: model.Date(2026, time.March, 16)}, model.ErrValidation},
		{"source of another owner", g.ID, ContributionInput{Amount: 100, SourceAccount: &other.ID}, model.ErrValidation},
		{"unknown source", g.ID, ContributionInput{Amount: 100, SourceAccount: &missing}, model.ErrNotFound},
		{"unknown goal", uuid.New(), ContributionInput{Amount: 100}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Contribute(ctx, tt.id, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	stored, err := s.Get(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.CurrentAmount != 0 {
		t.Errorf("rejected contributions changed the goal: %s", stored.CurrentAmount)
	}
}

func TestContribute_RecordsSourceAccount(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	g := createGoal(t, s, "house", "100000")
	acct := &model.Account{ID: uuid.New(), Owner: "ana", Name: "checking", Type: model.AccountChecking,
		InitialBalance: 500, CurrentBalance: 500, Active: true, CreatedAt: testNow}
	if err := db.Queries().InsertAccount(ctx, acct); err != nil {
		t.Fatal(err)
	}

	res, err := s.Contribute(ctx, g.ID, ContributionInput{
		Amount: money.MustParse("250"), Description: "bonus", Date: model.Date(2026, time.March, 1),
		SourceAccount: &acct.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Contribution.SourceAccount.Valid || res.Contribution.SourceAccount.UUID != acct.ID {
		t.Errorf("SourceAccount = %+v", res.Contribution.SourceAccount)
	}

	// the source account is informational and keeps its balance
	got, err := db.Queries().Account(ctx, acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentBalance != 500 {
		t.Errorf("source balance = %s, want 5.00", got.CurrentBalance)
	}
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	createGoal(t, s, "vacation", "3000")

	tests := []struct {
		name string
		in   GoalInput
		want error
	}{
		{"blank name", GoalInput{Owner: "ana", Name: "  ", Target: 100, TargetDate: model.Date(2026, time.June, 1)}, model.ErrValidation},
		{"zero target", GoalInput{Owner: "ana", Name: "x", TargetDate: model.Date(2026, time.June, 1)}, model.ErrValidation},
		{"past date", GoalInput{Owner: "ana", Name: "x", Target: 100, TargetDate: model.Date(2026, time.March, 14)}, model.ErrValidation},
		{"duplicate name", GoalInput{Owner: "ana", Name: "vacation", Target: 100, TargetDate: model.Date(2026, time.June, 1)}, model.ErrIntegrity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := s.Create(ctx, GoalInput{Owner: "bia", Name: "vacation", Target: 100, TargetDate: model.Day(testNow)}); err != nil {
		t.Errorf("same name for another owner, due today: %v", err)
	}
}

func TestReset(t *testing.T) {
	for _, remove := range []bool{false, true} {
		s, db := newService(t)
		ctx := context.Background()
		g := createGoal(t, s, "laptop", "2000")
		contribute(t, s, g.ID, "2000")

		got, err := s.Reset(ctx, g.ID, remove)
		if err != nil {
			t.Fatalf("Reset(%v): %v", remove, err)
		}
		if got.CurrentAmount != 0 || got.Achieved || got.AchievedAt != nil {
			t.Errorf("Reset(%v) goal = %+v", remove, got)
		}
		contribs, err := db.Queries().Contributions(ctx, g.ID)
		if err != nil {
			t.Fatal(err)
		}
		if want := map[bool]int{false: 1, true: 0}[remove]; len(contribs) != want {
			t.Errorf("Reset(%v) left %d contributions, want %d", remove, len(contribs), want)
		}

		// a reset goal accepts contributions again
		if res := contribute(t, s, g.ID, "100"); res.Goal.CurrentAmount != money.MustParse("100") {
			t.Errorf("after reset current = %s", res.Goal.CurrentAmount)
		}
	}
}

func TestList(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	createGoal(t, s, "b", "10")
	if _, err := s.Create(ctx, GoalInput{Owner: "ana", Name: "a", Target: 10, TargetDate: model.Date(2026, time.April, 1)}); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "a" {
		t.Errorf("List = %+v", list)
	}
}
