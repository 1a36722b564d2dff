package yield

import (
	"sync"
	"testing"

	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/store"
)

func TestCacheOrder(t *testing.T) {
	reg := model.Default()
	ball, _ := reg.Lookup("ball")

	c := NewCache()
	for _, name := range []string{"Earth", "Mars", "Venus"} {
		c.Append(&Yield{Entry: ball, Identifier: name, Fields: store.Record{"country": name}})
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	items := c.Items()
	for i, want := range []string{"Earth", "Mars", "Venus"} {
		if items[i].Identifier != want {
			t.Errorf("Items()[%d] = %q, want %q", i, items[i].Identifier, want)
		}
	}

	drained := c.Drain()
	if len(drained) != 3 || c.Len() != 0 {
		t.Errorf("Drain() = %d items, Len() = %d after", len(drained), c.Len())
	}
}

func TestCacheFind(t *testing.T) {
	reg := model.Default()
	ball, _ := reg.Lookup("ball")
	regime, _ := reg.Lookup("regime")

	c := NewCache()
	c.Append(&Yield{Entry: ball, Identifier: "Earth", Fields: store.Record{}})

	y, ok := c.Find(ball, "Earth")
	if !ok {
		t.Fatal("Find(ball, Earth) not found")
	}
	y.Fields["health"] = "5"

	again, _ := c.Find(ball, "Earth")
	if _, ok := again.Fields["health"]; ok {
		t.Error("Find should return a copy")
	}

	if !c.Update(ball, "Earth", "health", "7") {
		t.Fatal("Update(ball, Earth) = false")
	}
	if c.Items()[0].Fields["health"] != "7" {
		t.Errorf("health = %v, want 7", c.Items()[0].Fields["health"])
	}
	if c.Update(regime, "Earth", "health", "7") {
		t.Error("Update(regime, Earth) should not match a ball yield")
	}

	if _, ok := c.Find(regime, "Earth"); ok {
		t.Error("Find(regime, Earth) should not match a ball yield")
	}
	if _, ok := c.Find(ball, "earth"); ok {
		t.Error("Find is case-sensitive on identifier")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Append(&Yield{Identifier: "a"})
	c.Append(&Yield{Identifier: "b"})
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
}

func TestCacheConcurrentAppend(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append(&Yield{Identifier: "x"})
		}()
	}
	wg.Wait()

	if c.Len() != 50 {
		t.Errorf("Len() = %d, want 50", c.Len())
	}
}

func TestOpString(t *testing.T) {
	if OpCreate.String() != "create" {
		t.Errorf("OpCreate.String() = %q", OpCreate.String())
	}
}
