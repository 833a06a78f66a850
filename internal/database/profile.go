package database

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const PROFILE_DEFAULT_SLUG = "default"

func ProfileList(db *sqlx.DB) ([]Profile, error) {
	var profiles []Profile
	err := db.Select(&profiles, "SELECT * FROM Profile ORDER BY ID")
	if err != nil {
		return nil, errors.Wrap(err, "Ошибка при выборке Profile")
	}
	return profiles, nil
}

func GetProfileBySlug(db *sqlx.DB, slug string) (*Profile, error) {
	var p Profile
	err := db.Get(&p, "SELECT * FROM Profile WHERE Slug=?", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Ошибка при выборке Profile, Slug=%s", slug)
	}
	return &p, nil
}

func GetProfileByID(db *sqlx.DB, id int) (*Profile, error) {
	var p Profile
	err := db.Get(&p, "SELECT * FROM Profile WHERE ID=?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Ошибка при выборке Profile, ID=%d", id)
	}
	return &p, nil
}

// SaveProfile - upsert по Slug
func SaveProfile(db *sqlx.DB, p *Profile) error {
	if p.Slug == "" {
		return errors.New("Profile.Slug не задан")
	}
	_, err := db.Exec(`INSERT INTO Profile (Slug, Name, CategoryRef, OnlyActive, HasImages, HasVariants, ReferenceLike, ExchangeRate, Markup, Schedule, TestLimit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(Slug) DO UPDATE SET
			Name=excluded.Name,
			CategoryRef=excluded.CategoryRef,
			OnlyActive=excluded.OnlyActive,
			HasImages=excluded.HasImages,
			HasVariants=excluded.HasVariants,
			ReferenceLike=excluded.ReferenceLike,
			ExchangeRate=excluded.ExchangeRate,
			Markup=excluded.Markup,
			Schedule=excluded.Schedule,
			TestLimit=excluded.TestLimit`,
		p.Slug, p.Name, p.CategoryRef, p.OnlyActive, p.HasImages, p.HasVariants,
		p.ReferenceLike, p.ExchangeRate, p.Markup, p.Schedule, p.TestLimit)
	if err != nil {
		return errors.Wrapf(err, "Ошибка при сохранении Profile, Slug=%s", p.Slug)
	}
	return nil
}

func DeleteProfile(db *sqlx.DB, slug string) error {
	if slug == PROFILE_DEFAULT_SLUG {
		return errors.New("профиль default удалять нельзя")
	}
	_, err := db.Exec("DELETE FROM Profile WHERE Slug=?", slug)
	if err != nil {
		return errors.Wrapf(err, "Ошибка при удалении Profile, Slug=%s", slug)
	}
	return nil
}

func GetSetting(db *sqlx.DB, name string) (string, error) {
	var s Setting
	err := db.Get(&s, "SELECT * FROM Setting WHERE Name=?", name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "Ошибка при выборке Setting, Name=%s", name)
	}
	return s.Value, nil
}

func SetSetting(db *sqlx.DB, name string, value string) error {
	_, err := db.Exec(`INSERT INTO Setting (Name, Value) VALUES (?, ?)
		ON CONFLICT(Name) DO UPDATE SET Value=excluded.Value`, name, value)
	if err != nil {
		return errors.Wrapf(err, "Ошибка при сохранении Setting, Name=%s", name)
	}
	return nil
}
