package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS brands (
	id BIGSERIAL PRIMARY KEY,
	website TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	domain TEXT NOT NULL,
	platform TEXT NOT NULL,
	about TEXT,
	profile JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	brand_id BIGINT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	product_key TEXT NOT NULL,
	external_id TEXT,
	title TEXT NOT NULL,
	price TEXT,
	url TEXT,
	image TEXT,
	available BOOLEAN,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (brand_id, product_key)
)`,
	`CREATE INDEX IF NOT EXISTS products_brand_id_idx ON products (brand_id)`,
}
