package storage

// Times are Unix nanoseconds in UTC; durations are nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS decks (
	name          TEXT PRIMARY KEY,
	study_options TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cards (
	id         TEXT NOT NULL,
	deck       TEXT NOT NULL REFERENCES decks(name) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	front      TEXT NOT NULL,
	back       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (deck, id),
	UNIQUE (deck, front)
);

CREATE TABLE IF NOT EXISTS reviews (
	deck          TEXT NOT NULL,
	card_id       TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	instant       INTEGER NOT NULL,
	thinking_time INTEGER NOT NULL,
	success       INTEGER NOT NULL,
	PRIMARY KEY (deck, card_id, seq),
	FOREIGN KEY (deck, card_id) REFERENCES cards(deck, id) ON DELETE CASCADE
);
`
