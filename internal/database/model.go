package database

type Setting struct {
	ID    int    `db:"ID"`
	Name  string `db:"Name"`
	Value string `db:"Value"`
}

type TranslationCache struct {
	ID             int    `db:"ID"`
	Hash           string `db:"Hash"`
	SourceLang     string `db:"SourceLang"`
	TargetLang     string `db:"TargetLang"`
	SourceText     string `db:"SourceText"`
	TranslatedText string `db:"TranslatedText"`
	Service        string `db:"Service"`
	CreatedAt      string `db:"CreatedAt"`
}

type CategoryMap struct {
	ID    int    `db:"ID"`
	Ref   string `db:"Ref"`
	WooID int    `db:"WooID"`
	Kind  string `db:"Kind"` // auto / manual
}

type SyncState struct {
	ID        int    `db:"ID"`
	Status    string `db:"Status"`
	Requested string `db:"Requested"` // pause / resume / stop, пишут только хендлеры
	ProfileID int    `db:"ProfileID"`
	BatchID   string `db:"BatchID"`
	Page      int    `db:"Page"`
	Processed int    `db:"Processed"`
	Created   int    `db:"Created"`
	Updated   int    `db:"Updated"`
	Failed    int    `db:"Failed"`
	StartedAt string `db:"StartedAt"`
	UpdatedAt string `db:"UpdatedAt"`
}

type SyncHistory struct {
	ID         int    `db:"ID"`
	BatchID    string `db:"BatchID"`
	ProfileID  int    `db:"ProfileID"`
	Status     string `db:"Status"`
	Page       int    `db:"Page"`
	Processed  int    `db:"Processed"`
	Created    int    `db:"Created"`
	Updated    int    `db:"Updated"`
	Failed     int    `db:"Failed"`
	StartedAt  string `db:"StartedAt"`
	FinishedAt string `db:"FinishedAt"`
}

type SyncLog struct {
	ID        int    `db:"ID"`
	BatchID   string `db:"BatchID"`
	Level     string `db:"Level"` // success / warning / error
	Reference string `db:"Reference"`
	Message   string `db:"Message"`
	CreatedAt string `db:"CreatedAt"`
}

type Profile struct {
	ID            int     `db:"ID"`
	Slug          string  `db:"Slug"`
	Name          string  `db:"Name"`
	CategoryRef   string  `db:"CategoryRef"`
	OnlyActive    int     `db:"OnlyActive"`
	HasImages     int     `db:"HasImages"`
	HasVariants   int     `db:"HasVariants"`
	ReferenceLike string  `db:"ReferenceLike"`
	ExchangeRate  float64 `db:"ExchangeRate"` // 0 = глобальный курс
	Markup        float64 `db:"Markup"`       // -1 = глобальная наценка
	Schedule      string  `db:"Schedule"`     // none / hourly / daily / weekly
	TestLimit     int     `db:"TestLimit"`
}

const DB_SCHEMA = `CREATE TABLE Setting (
	ID integer PRIMARY KEY AUTOINCREMENT,
	Name text UNIQUE,
	Value text
);

CREATE TABLE TranslationCache (
	ID integer PRIMARY KEY AUTOINCREMENT,
	Hash text UNIQUE,
	SourceLang text,
	TargetLang text,
	SourceText text,
	TranslatedText text,
	Service text,
	CreatedAt text
);

CREATE TABLE CategoryMap (
	ID integer PRIMARY KEY AUTOINCREMENT,
	Ref text,
	WooID integer,
	Kind text,
	UNIQUE(Ref, Kind)
);

CREATE TABLE SyncState (
	ID integer PRIMARY KEY,
	Status text,
	Requested text,
	ProfileID integer,
	BatchID text,
	Page integer,
	Processed integer,
	Created integer,
	Updated integer,
	Failed integer,
	StartedAt text,
	UpdatedAt text
);

CREATE TABLE SyncHistory (
	ID integer PRIMARY KEY AUTOINCREMENT,
	BatchID text,
	ProfileID integer,
	Status text,
	Page integer,
	Processed integer,
	Created integer,
	Updated integer,
	Failed integer,
	StartedAt text,
	FinishedAt text
);

CREATE TABLE SyncLog (
	ID integer PRIMARY KEY AUTOINCREMENT,
	BatchID text,
	Level text,
	Reference text,
	Message text,
	CreatedAt text
);

CREATE TABLE Profile (
	ID integer PRIMARY KEY AUTOINCREMENT,
	Slug text UNIQUE,
	Name text,
	CategoryRef text,
	OnlyActive integer,
	HasImages integer,
	HasVariants integer,
	ReferenceLike text,
	ExchangeRate real,
	Markup real,
	Schedule text,
	TestLimit integer
);

INSERT INTO SyncState (ID, Status, Requested, ProfileID, BatchID, Page, Processed, Created, Updated, Failed, StartedAt, UpdatedAt)
VALUES (1, 'idle', '', 0, '', 0, 0, 0, 0, 0, '', '');

INSERT INTO Profile (Slug, Name, CategoryRef, OnlyActive, HasImages, HasVariants, ReferenceLike, ExchangeRate, Markup, Schedule, TestLimit)
VALUES ('default', 'Default', '', 1, 0, 0, '', 0, -1, 'none', 0);
`
