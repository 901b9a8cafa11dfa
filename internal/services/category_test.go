package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/types"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

func TestCategoryTypeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catService.CreateType(ctx, &types.CategoryType{
		PlanID: f.plan.ID, Identifier: "Bad Id", Name: "x",
	})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("bad identifier accepted: %v", err)
	}

	_, err = f.catService.CreateType(ctx, &types.CategoryType{
		PlanID: f.plan.ID, Identifier: "ok", Name: "",
	})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("empty name accepted: %v", err)
	}

	created, err := f.catService.CreateType(ctx, &types.CategoryType{
		PlanID: f.plan.ID, Identifier: "themes", Name: "Themes",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SelectWidget != types.SelectWidgetSingle {
		t.Errorf("select widget default = %s", created.SelectWidget)
	}

	listed, err := f.catService.ListTypes(ctx, f.plan.ID)
	if err != nil {
		t.Fatalf("list types: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("listed %d types", len(listed))
	}
}

func TestCategoryLevelsLimitDepth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catType := f.createCategoryType(t, "themes")

	for i, name := range []string{"Main theme", "Sub-theme"} {
		level, err := f.catService.AddLevel(ctx, catType.ID, name)
		if err != nil {
			t.Fatalf("add level %q: %v", name, err)
		}
		if level.SortOrder != i {
			t.Errorf("level %q sort order = %d, want %d", name, level.SortOrder, i)
		}
	}
	if _, err := f.catService.AddLevel(ctx, catType.ID, ""); !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("empty level name accepted: %v", err)
	}

	root, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "root", Name: "Root"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "child", Name: "Child", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// Two levels declared, so a third tier is out.
	_, err = f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "grandchild", Name: "Too deep", ParentID: &child.ID})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("over-deep category accepted: %v", err)
	}

	depth, err := f.catService.Depth(ctx, child.ID)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 1 {
		t.Errorf("child depth = %d", depth)
	}
}

func TestCategoryUnlimitedDepthWithoutLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catType := f.createCategoryType(t, "themes")

	parentID := (*uuid.UUID)(nil)
	for i := 0; i < 5; i++ {
		created, err := f.catService.Create(ctx, CreateCategoryInput{
			TypeID:     catType.ID,
			Identifier: string(rune('a' + i)),
			Name:       "Nested",
			ParentID:   parentID,
		})
		if err != nil {
			t.Fatalf("create tier %d: %v", i, err)
		}
		parentID = &created.ID
	}

	depth, err := f.catService.Depth(ctx, *parentID)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 4 {
		t.Errorf("deepest depth = %d", depth)
	}
}

func TestCategoryMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catType := f.createCategoryType(t, "themes")
	other := f.createCategoryType(t, "sectors")

	a, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "a", Name: "A"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "b", Name: "B", ParentID: &a.ID})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	c, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "c", Name: "C", ParentID: &b.ID})
	if err != nil {
		t.Fatalf("create c: %v", err)
	}
	foreign, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: other.ID, Identifier: "f", Name: "F"})
	if err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	if _, err := f.catService.Move(ctx, a.ID, &a.ID); !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("self-parent accepted: %v", err)
	}
	if _, err := f.catService.Move(ctx, a.ID, &foreign.ID); !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("cross-type move accepted: %v", err)
	}
	// Moving a under its grandchild would close a cycle.
	if _, err := f.catService.Move(ctx, a.ID, &c.ID); !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("cycle-creating move accepted: %v", err)
	}

	moved, err := f.catService.Move(ctx, c.ID, &a.ID)
	if err != nil {
		t.Fatalf("move c under a: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != a.ID {
		t.Errorf("c parent = %v", moved.ParentID)
	}

	promoted, err := f.catService.Move(ctx, b.ID, nil)
	if err != nil {
		t.Fatalf("promote b to root: %v", err)
	}
	if promoted.ParentID != nil {
		t.Errorf("b still has parent %v", promoted.ParentID)
	}
}

func TestReorderSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catType := f.createCategoryType(t, "themes")

	var roots []*types.Category
	for _, id := range []string{"a", "b", "c"} {
		created, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: id, Name: id})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		roots = append(roots, created)
	}
	child, err := f.catService.Create(ctx, CreateCategoryInput{TypeID: catType.ID, Identifier: "child", Name: "Child", ParentID: &roots[0].ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// nil parent reorders the roots only; the child under a is untouched.
	err = f.catService.ReorderSiblings(ctx, catType.ID, nil, []uuid.UUID{roots[2].ID, roots[0].ID, roots[1].ID})
	if err != nil {
		t.Fatalf("reorder roots: %v", err)
	}
	listed, err := f.catService.ListForType(ctx, catType.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var rootOrder []string
	for _, category := range listed {
		if category.ParentID == nil {
			rootOrder = append(rootOrder, category.Identifier)
		}
	}
	if len(rootOrder) != 3 || rootOrder[0] != "c" || rootOrder[1] != "a" || rootOrder[2] != "b" {
		t.Errorf("root order = %v", rootOrder)
	}

	err = f.catService.ReorderSiblings(ctx, catType.ID, nil, []uuid.UUID{roots[0].ID, roots[1].ID})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("short list accepted: %v", err)
	}
	err = f.catService.ReorderSiblings(ctx, catType.ID, nil, []uuid.UUID{roots[0].ID, roots[1].ID, child.ID})
	if !watcherr.IsKind(err, watcherr.KindConstraintViolation) {
		t.Errorf("non-sibling entry accepted: %v", err)
	}

	err = f.catService.ReorderSiblings(ctx, catType.ID, &roots[0].ID, []uuid.UUID{child.ID})
	if err != nil {
		t.Errorf("single-child reorder: %v", err)
	}
}
