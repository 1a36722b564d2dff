package model

import "github.com/dotsian/dexscript/internal/store"

// Default entity kinds. Field roles drive what `create` fills in when only
// an identifier is given.
var (
	Regime = &store.Schema{
		Name: "Regime",
		Fields: []*store.Field{
			{Name: "id", Type: store.FieldTypeInteger, Primary: true, Auto: true},
			{Name: "name", Type: store.FieldTypeString, Index: true, Role: store.RoleIdentifier},
			{Name: "background", Type: store.FieldTypeString},
		},
	}

	Economy = &store.Schema{
		Name: "Economy",
		Fields: []*store.Field{
			{Name: "id", Type: store.FieldTypeInteger, Primary: true, Auto: true},
			{Name: "name", Type: store.FieldTypeString, Index: true, Role: store.RoleIdentifier},
			{Name: "icon", Type: store.FieldTypeString},
		},
	}

	Special = &store.Schema{
		Name: "Special",
		Fields: []*store.Field{
			{Name: "id", Type: store.FieldTypeInteger, Primary: true, Auto: true},
			{Name: "name", Type: store.FieldTypeString, Index: true, Role: store.RoleIdentifier},
			{Name: "catch_phrase", Type: store.FieldTypeString, Optional: true},
			{Name: "start_date", Type: store.FieldTypeDatetime, Optional: true},
			{Name: "end_date", Type: store.FieldTypeDatetime, Optional: true},
			{Name: "rarity", Type: store.FieldTypeFloat},
			{Name: "emoji", Type: store.FieldTypeString, Optional: true},
			{Name: "background", Type: store.FieldTypeString},
			{Name: "hidden", Type: store.FieldTypeBoolean, Default: false},
		},
	}

	Ball = &store.Schema{
		Name: "Ball",
		Fields: []*store.Field{
			{Name: "id", Type: store.FieldTypeInteger, Primary: true, Auto: true},
			{Name: "country", Type: store.FieldTypeString, Index: true, Role: store.RoleIdentifier},
			{Name: "short_name", Type: store.FieldTypeString, Optional: true, Role: store.RoleSkip},
			{Name: "catch_names", Type: store.FieldTypeString, Role: store.RoleIdentifier},
			{Name: "regime_id", Type: store.FieldTypeInteger, Role: store.RoleReference, Ref: "regime"},
			{Name: "economy_id", Type: store.FieldTypeInteger, Optional: true},
			{Name: "health", Type: store.FieldTypeInteger},
			{Name: "attack", Type: store.FieldTypeInteger},
			{Name: "rarity", Type: store.FieldTypeFloat},
			{Name: "enabled", Type: store.FieldTypeBoolean, Default: true},
			{Name: "tradeable", Type: store.FieldTypeBoolean, Default: true},
			{Name: "emoji_id", Type: store.FieldTypeInteger, Role: store.RoleSentinel},
			{Name: "wild_card", Type: store.FieldTypeString},
			{Name: "collection_card", Type: store.FieldTypeString},
			{Name: "credits", Type: store.FieldTypeString},
			{Name: "capacity_name", Type: store.FieldTypeString},
			{Name: "capacity_description", Type: store.FieldTypeString},
			{Name: "created_at", Type: store.FieldTypeDatetime, Default: store.DefaultNow},
		},
	}

	GuildConfig = &store.Schema{
		Name: "GuildConfig",
		Fields: []*store.Field{
			{Name: "id", Type: store.FieldTypeInteger, Primary: true, Auto: true},
			{Name: "guild_id", Type: store.FieldTypeInteger, Index: true},
			{Name: "spawn_channel", Type: store.FieldTypeInteger, Optional: true},
			{Name: "enabled", Type: store.FieldTypeBoolean, Default: true},
			{Name: "silent", Type: store.FieldTypeBoolean, Default: false},
		},
	}
)

// Default returns a registry holding the default table:
// ball, regime, economy, special and guildconfig.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister("guildconfig", GuildConfig, "ID")
	r.MustRegister("ball", Ball, "COUNTRY")
	r.MustRegister("regime", Regime, "NAME")
	r.MustRegister("economy", Economy, "NAME")
	r.MustRegister("special", Special, "NAME")
	return r
}
