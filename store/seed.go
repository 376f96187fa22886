package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/logging"
	"github.com/giygas/lighthospital/search"
)

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	pinyin TEXT,
	gender TEXT NOT NULL,
	age INTEGER NOT NULL,
	phone TEXT,
	address TEXT,
	id_card TEXT,
	medical_history TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS medicines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	specification TEXT NOT NULL,
	unit TEXT NOT NULL,
	price REAL NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0,
	min_stock INTEGER NOT NULL DEFAULT 0,
	category TEXT,
	manufacturer TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// DemoMedicines is the sample pharmacy loaded into empty development databases.
var DemoMedicines = []entities.Medicine{
	{Name: "阿莫西林胶囊", Specification: "0.25g*24粒", Unit: "盒", Price: 15.50, Stock: 100, MinStock: 10, Category: "抗生素", Manufacturer: "华北制药"},
	{Name: "布洛芬片", Specification: "0.1g*20片", Unit: "盒", Price: 8.80, Stock: 80, MinStock: 10, Category: "解热镇痛", Manufacturer: "中美史克"},
	{Name: "感冒灵颗粒", Specification: "10g*10袋", Unit: "盒", Price: 12.00, Stock: 60, MinStock: 10, Category: "感冒药", Manufacturer: "999药业"},
	{Name: "维生素C片", Specification: "0.1g*100片", Unit: "瓶", Price: 5.50, Stock: 120, MinStock: 10, Category: "维生素", Manufacturer: "东北制药"},
	{Name: "板蓝根颗粒", Specification: "10g*20袋", Unit: "盒", Price: 18.00, Stock: 8, MinStock: 10, Category: "清热解毒", Manufacturer: "白云山"},
}

// DemoPatients is the sample patient list loaded into empty development databases.
var DemoPatients = []entities.Patient{
	{Name: "王小明", Gender: "男", Age: 34, Phone: "13800138000"},
	{Name: "李华", Gender: "女", Age: 28, Phone: "13900139000"},
	{Name: "张伟", Gender: "男", Age: 61, Phone: "13700137000"},
}

// Seed creates the catalog schema at path and fills empty tables. Medicines
// come from the TSV export at importFile when given, otherwise from
// DemoMedicines.
func Seed(ctx context.Context, path, importFile string) error {
	db, err := sql.Open("sqlite", dsn(path, false))
	if err != nil {
		return fmt.Errorf("failed to open catalog database for seeding: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close seeding connection", "error", err)
		}
	}()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}

	medicines := DemoMedicines
	if importFile != "" {
		medicines, err = ImportMedicinesFile(importFile)
		if err != nil {
			return err
		}
	}

	inserted, err := seedMedicines(ctx, db, medicines)
	if err != nil {
		return err
	}
	if inserted > 0 {
		logging.Info("Sample medicines added", "count", inserted, "source", sourceName(importFile))
	}

	inserted, err = seedPatients(ctx, db, DemoPatients)
	if err != nil {
		return err
	}
	if inserted > 0 {
		logging.Info("Sample patients added", "count", inserted)
	}
	return nil
}

func sourceName(importFile string) string {
	if importFile == "" {
		return "demo"
	}
	return importFile
}

func tableEmpty(ctx context.Context, tx *sql.Tx, table string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count == 0, nil
}

func seedMedicines(ctx context.Context, db *sql.DB, medicines []entities.Medicine) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin medicine seeding: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	empty, err := tableEmpty(ctx, tx, "medicines")
	if err != nil || !empty {
		return 0, err
	}

	now := time.Now()
	for _, m := range medicines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO medicines (name, specification, unit, price, stock, min_stock, category, manufacturer, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.Specification, m.Unit, m.Price, m.Stock, m.MinStock, m.Category, m.Manufacturer, now, now); err != nil {
			return 0, fmt.Errorf("failed to insert medicine %q: %w", m.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit medicine seeding: %w", err)
	}
	return len(medicines), nil
}

func seedPatients(ctx context.Context, db *sql.DB, patients []entities.Patient) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin patient seeding: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	empty, err := tableEmpty(ctx, tx, "patients")
	if err != nil || !empty {
		return 0, err
	}

	now := time.Now()
	for i, p := range patients {
		// keep the listed order when sorting by most recent first
		created := now.Add(-time.Duration(i) * time.Minute)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO patients (name, pinyin, gender, age, phone, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Name, search.Pinyin(p.Name), p.Gender, p.Age, p.Phone, created, created); err != nil {
			return 0, fmt.Errorf("failed to insert patient %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit patient seeding: %w", err)
	}
	return len(patients), nil
}
