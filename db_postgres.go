package main

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type PostgresDB struct {
	db  *sql.DB
	dsn string
}

func NewPostgresDB(dsn string) (*PostgresDB, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	p := &PostgresDB{db: d, dsn: dsn}
	if err := p.Init(); err != nil {
		d.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) Init() error {
	// rely on migrations to create tables; just verify connectivity
	if err := p.db.Ping(); err != nil {
		return err
	}
	return nil
}

func (p *PostgresDB) CreateUser(email, password, nickname, profileImageURL, bio string) (*User, error) {
	var id int64
	err := p.db.QueryRow(`INSERT INTO users(email,password,nickname,profile_image_url,bio,refresh_token,created_at) VALUES($1,$2,$3,$4,$5,'',now()) RETURNING id`,
		email, password, nickname, profileImageURL, bio).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Email: email, Password: password, Nickname: nickname,
		ProfileImageURL: profileImageURL, Bio: bio}, nil
}

func (p *PostgresDB) scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Nickname, &u.ProfileImageURL, &u.Bio, &u.RefreshToken, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (p *PostgresDB) GetUserByEmail(email string) (*User, error) {
	row := p.db.QueryRow(`SELECT id,email,password,nickname,profile_image_url,bio,refresh_token,created_at FROM users WHERE email = $1`, email)
	return p.scanUser(row)
}

func (p *PostgresDB) GetUserByID(id int64) (*User, error) {
	row := p.db.QueryRow(`SELECT id,email,password,nickname,profile_image_url,bio,refresh_token,created_at FROM users WHERE id = $1`, id)
	return p.scanUser(row)
}

func (p *PostgresDB) UpdateRefreshToken(userID int64, token string) error {
	_, err := p.db.Exec(`UPDATE users SET refresh_token = $1 WHERE id = $2`, token, userID)
	return err
}

func (p *PostgresDB) GetUserByIDAndRefreshToken(userID int64, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	row := p.db.QueryRow(`SELECT id,email,password,nickname,profile_image_url,bio,refresh_token,created_at FROM users WHERE id = $1 AND refresh_token = $2`, userID, token)
	return p.scanUser(row)
}

func (p *PostgresDB) CreateProduct(userID int64, level string, startAt, endAt time.Time) (*Product, error) {
	var id int64
	err := p.db.QueryRow(`INSERT INTO products(user_id,level,start_at,end_at) VALUES($1,$2,$3,$4) RETURNING id`,
		userID, level, startAt, endAt).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &Product{ID: id, UserID: userID, Level: level, StartAt: startAt, EndAt: endAt}, nil
}

func (p *PostgresDB) GetProductByUserID(userID int64) (*Product, error) {
	row := p.db.QueryRow(`SELECT id,user_id,level,start_at,end_at FROM products WHERE user_id = $1`, userID)
	var prod Product
	if err := row.Scan(&prod.ID, &prod.UserID, &prod.Level, &prod.StartAt, &prod.EndAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &prod, nil
}

func (p *PostgresDB) CreatePost(userID int64, location, title, content string, needPremium bool) (*Post, error) {
	var id int64
	err := p.db.QueryRow(`INSERT INTO posts(user_id,location,title,content,need_premium,created_at) VALUES($1,$2,$3,$4,$5,now()) RETURNING id`,
		userID, location, title, content, needPremium).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &Post{ID: id, UserID: userID, Location: location, Title: title,
		Content: content, NeedPremium: needPremium}, nil
}

func (p *PostgresDB) close() error { return p.db.Close() }
func (p *PostgresDB) ping() bool   { return p.db.Ping() == nil }
