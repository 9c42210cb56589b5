package main

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

var errEmailTaken = errors.New("email already taken")

// DB interface for database operations
type DB interface {
	Init() error
	// User operations
	CreateUser(email, password, nickname, profileImageURL, bio string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id int64) (*User, error)
	// Session operations. A user holds at most one valid refresh token;
	// UpdateRefreshToken overwrites the previous value unconditionally.
	UpdateRefreshToken(userID int64, token string) error
	GetUserByIDAndRefreshToken(userID int64, token string) (*User, error)
	// Product operations
	CreateProduct(userID int64, level string, startAt, endAt time.Time) (*Product, error)
	GetProductByUserID(userID int64) (*Product, error)
	// Post operations
	CreatePost(userID int64, location, title, content string, needPremium bool) (*Post, error)
}

// Memory DB
type MemDB struct {
	mu       sync.Mutex
	users    map[string]*User
	products map[int64]*Product
	posts    []*Post
	seq      int64
}

func NewMemoryDB() *MemDB {
	return &MemDB{users: map[string]*User{}, products: map[int64]*Product{}, seq: 1}
}

func (m *MemDB) Init() error { return nil }

func (m *MemDB) CreateUser(email, password, nickname, profileImageURL, bio string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, errEmailTaken
	}
	u := &User{ID: m.seq, Email: email, Password: password, Nickname: nickname,
		ProfileImageURL: profileImageURL, Bio: bio, CreatedAt: time.Now()}
	m.seq++
	m.users[email] = u
	return u, nil
}

func (m *MemDB) GetUserByEmail(email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, nil
}

func (m *MemDB) GetUserByID(id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MemDB) UpdateRefreshToken(userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.RefreshToken = token
			return nil
		}
	}
	return nil
}

func (m *MemDB) GetUserByIDAndRefreshToken(userID int64, token string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID && u.RefreshToken != "" && u.RefreshToken == token {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MemDB) CreateProduct(userID int64, level string, startAt, endAt time.Time) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Product{ID: m.seq, UserID: userID, Level: level, StartAt: startAt, EndAt: endAt}
	m.seq++
	m.products[userID] = p
	return p, nil
}

func (m *MemDB) GetProductByUserID(userID int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[userID]; ok {
		return p, nil
	}
	return nil, nil
}

func (m *MemDB) CreatePost(userID int64, location, title, content string, needPremium bool) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Post{ID: m.seq, UserID: userID, Location: location, Title: title,
		Content: content, NeedPremium: needPremium, CreatedAt: time.Now()}
	m.seq++
	m.posts = append(m.posts, p)
	return p, nil
}

// SQLite DB
type SQLiteDB struct {
	db   *sql.DB
	path string
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteDB{db: d, path: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDB) Init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT UNIQUE, password TEXT, nickname TEXT, profile_image_url TEXT, bio TEXT, refresh_token TEXT, created_at TEXT);`,
		`CREATE TABLE IF NOT EXISTS products (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER, level TEXT, start_at TEXT, end_at TEXT);`,
		`CREATE TABLE IF NOT EXISTS posts (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER, location TEXT, title TEXT, content TEXT, views INTEGER DEFAULT 0, need_premium INTEGER DEFAULT 0, created_at TEXT);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDB) CreateUser(email, password, nickname, profileImageURL, bio string) (*User, error) {
	res, err := s.db.Exec(`INSERT INTO users(email,password,nickname,profile_image_url,bio,refresh_token,created_at) VALUES(?,?,?,?,?,'',datetime('now'))`,
		email, password, nickname, profileImageURL, bio)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Email: email, Password: password, Nickname: nickname,
		ProfileImageURL: profileImageURL, Bio: bio}, nil
}

func (s *SQLiteDB) scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Nickname, &u.ProfileImageURL, &u.Bio, &u.RefreshToken, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteDB) GetUserByEmail(email string) (*User, error) {
	row := s.db.QueryRow(`SELECT id,email,password,nickname,profile_image_url,bio,refresh_token,created_at FROM users WHERE email = ?`, email)
	return s.scanUser(row)
}

func (s *SQLiteDB) GetUserByID(id int64) (*User, error) {
	row := s.db.QueryRow(`SELECT id,email,password,nickname,profile_image_url,bio,refresh_token,created_at FROM users WHERE id = ?`, id)
	return s.scanUser(row)
}

func (s *SQLiteDB) UpdateRefreshToken(userID int64, token string) error {
	_, err := s.db.Exec(`UPDATE users SET refresh_token = ? WHERE id = ?`, token, userID)
	return err
}

func (s *SQLiteDB) GetUserByIDAndRefreshToken(userID int64, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT id,email,password,nickname,profile_image_url,bio,refresh_token,created_at FROM users WHERE id = ? AND refresh_token = ?`, userID, token)
	return s.scanUser(row)
}

func (s *SQLiteDB) CreateProduct(userID int64, level string, startAt, endAt time.Time) (*Product, error) {
	res, err := s.db.Exec(`INSERT INTO products(user_id,level,start_at,end_at) VALUES(?,?,?,?)`,
		userID, level, startAt.UTC().Format(time.RFC3339), endAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &Product{ID: id, UserID: userID, Level: level, StartAt: startAt, EndAt: endAt}, nil
}

func (s *SQLiteDB) GetProductByUserID(userID int64) (*Product, error) {
	row := s.db.QueryRow(`SELECT id,user_id,level,start_at,end_at FROM products WHERE user_id = ?`, userID)
	var p Product
	var startAt, endAt string
	if err := row.Scan(&p.ID, &p.UserID, &p.Level, &startAt, &endAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.StartAt, _ = time.Parse(time.RFC3339, startAt)
	p.EndAt, _ = time.Parse(time.RFC3339, endAt)
	return &p, nil
}

func (s *SQLiteDB) CreatePost(userID int64, location, title, content string, needPremium bool) (*Post, error) {
	premium := 0
	if needPremium {
		premium = 1
	}
	res, err := s.db.Exec(`INSERT INTO posts(user_id,location,title,content,need_premium,created_at) VALUES(?,?,?,?,?,datetime('now'))`,
		userID, location, title, content, premium)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &Post{ID: id, UserID: userID, Location: location, Title: title,
		Content: content, NeedPremium: needPremium}, nil
}

// lifecycle helpers
func (m *MemDB) close() error { return nil }
func (m *MemDB) ping() bool   { return true }

func (s *SQLiteDB) close() error { return s.db.Close() }
func (s *SQLiteDB) ping() bool   { return s.db.Ping() == nil }
