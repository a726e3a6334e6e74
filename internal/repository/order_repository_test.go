package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/cinetix/box-office/internal/model"
)

func TestOrderRepoCreate(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    created := time.Date(2026, 8, 31, 12, 30, 45, 0, time.UTC)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT EXISTS").
        WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
    mock.ExpectExec("INSERT INTO orders").
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectExec("INSERT INTO order_seats").
        WillReturnResult(sqlmock.NewResult(1, 2))
    mock.ExpectExec("INSERT INTO order_items").
        WillReturnResult(sqlmock.NewResult(1, 2))
    mock.ExpectExec("INSERT IGNORE INTO order_history").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT created_at FROM orders").
        WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
    mock.ExpectCommit()

    repo := NewOrderRepo(db)
    seats := []model.SeatRef{{Row: 8, Col: 7}, {Row: 8, Col: 8}}
    order, err := repo.Create(context.Background(), 3, seats, []string{"Adult", "Student"}, 180, "buyer@example.com")
    if err != nil {
        t.Fatalf("Create: %v", err)
    }
    if order.ID != 7 {
        t.Errorf("ID = %d, want 7", order.ID)
    }
    if len(order.Token) != 20 {
        t.Errorf("token %q has length %d, want 20", order.Token, len(order.Token))
    }
    if !regexp.MustCompile(`^[a-z0-9]{20}$`).MatchString(order.Token) {
        t.Errorf("token %q is not 20 lowercase alphanumerics", order.Token)
    }
    if order.Status != model.OrderUnpaid {
        t.Errorf("status = %q, want %q", order.Status, model.OrderUnpaid)
    }
    if order.PayMethod != model.PayMethodUnpaid {
        t.Errorf("pay method = %q, want %q", order.PayMethod, model.PayMethodUnpaid)
    }
    if !order.CreatedAt.Equal(created) {
        t.Errorf("created at = %v, want %v", order.CreatedAt, created)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

// A token collision must trigger regeneration, not a duplicate order.
func TestOrderRepoCreateTokenCollisionRetry(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    mock.ExpectBegin()
    // First candidate token is taken, second is free.
    mock.ExpectQuery("SELECT EXISTS").
        WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(true))
    mock.ExpectQuery("SELECT EXISTS").
        WillReturnRows(sqlmock.NewRows([]string{"taken"}).AddRow(false))
    mock.ExpectExec("INSERT INTO orders").
        WillReturnResult(sqlmock.NewResult(8, 1))
    mock.ExpectExec("INSERT INTO order_seats").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectExec("INSERT INTO order_items").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectExec("INSERT IGNORE INTO order_history").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT created_at FROM orders").
        WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
    mock.ExpectCommit()

    repo := NewOrderRepo(db)
    _, err = repo.Create(context.Background(), 3,
        []model.SeatRef{{Row: 1, Col: 1}}, []string{"Adult"}, 100, "buyer@example.com")
    if err != nil {
        t.Fatalf("Create with collision: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestOrderRepoFindByTokenNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    mock.ExpectQuery("SELECT id, order_token").
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    repo := NewOrderRepo(db)
    if _, err := repo.FindByToken(context.Background(), "nope"); !errors.Is(err, ErrOrderNotFound) {
        t.Fatalf("err = %v, want ErrOrderNotFound", err)
    }
}

func TestOrderRepoMarkConfirmedIdempotent(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    token := "f7a81c4de9b24f05a6d1"

    // First confirmation flips the row.
    mock.ExpectExec("UPDATE orders SET status").
        WithArgs(model.OrderTicketPending, "credit-card", token, model.OrderUnpaid).
        WillReturnResult(sqlmock.NewResult(0, 1))
    // Second confirmation matches no UNPAID row; the follow-up read finds
    // the settled order and reports a no-op.
    mock.ExpectExec("UPDATE orders SET status").
        WithArgs(model.OrderTicketPending, "credit-card", token, model.OrderUnpaid).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT status FROM orders").
        WithArgs(token).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.OrderTicketPending))

    repo := NewOrderRepo(db)
    already, err := repo.MarkConfirmed(context.Background(), token, "credit-card")
    if err != nil || already {
        t.Fatalf("first MarkConfirmed: already=%v err=%v", already, err)
    }
    already, err = repo.MarkConfirmed(context.Background(), token, "credit-card")
    if err != nil {
        t.Fatalf("second MarkConfirmed: %v", err)
    }
    if !already {
        t.Fatal("second MarkConfirmed should report already paid")
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}

func TestOrderRepoMarkConfirmedUnknownToken(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    mock.ExpectExec("UPDATE orders SET status").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT status FROM orders").
        WillReturnRows(sqlmock.NewRows([]string{"status"}))

    repo := NewOrderRepo(db)
    if _, err := repo.MarkConfirmed(context.Background(), "missing", "atm"); !errors.Is(err, ErrOrderNotFound) {
        t.Fatalf("err = %v, want ErrOrderNotFound", err)
    }
}

func TestOrderRepoReissueAlreadyPaid(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    token := "f7a81c4de9b24f05a6d1"
    mock.ExpectQuery("SELECT id, order_token").
        WithArgs(token).
        WillReturnRows(sqlmock.NewRows(
            []string{"id", "order_token", "session_id", "price", "pay_method", "status", "created_at"},
        ).AddRow(7, token, 3, 180, "credit-card", model.OrderTicketPending, time.Now().UTC()))
    mock.ExpectQuery("SELECT seat_row, seat_col FROM order_seats").
        WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_col"}).AddRow(1, 1))
    mock.ExpectQuery("SELECT tier_name FROM order_items").
        WillReturnRows(sqlmock.NewRows([]string{"tier_name"}).AddRow("Adult"))

    repo := NewOrderRepo(db)
    if _, err := repo.Reissue(context.Background(), token); !errors.Is(err, ErrAlreadyPaid) {
        t.Fatalf("err = %v, want ErrAlreadyPaid", err)
    }
}

func TestOrderRepoReissueUnpaid(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock init error: %v", err)
    }
    defer db.Close()

    token := "f7a81c4de9b24f05a6d1"
    mock.ExpectQuery("SELECT id, order_token").
        WithArgs(token).
        WillReturnRows(sqlmock.NewRows(
            []string{"id", "order_token", "session_id", "price", "pay_method", "status", "created_at"},
        ).AddRow(7, token, 3, 180, model.PayMethodUnpaid, model.OrderUnpaid, time.Now().UTC()))
    mock.ExpectQuery("SELECT seat_row, seat_col FROM order_seats").
        WillReturnRows(sqlmock.NewRows([]string{"seat_row", "seat_col"}).AddRow(8, 7).AddRow(8, 8))
    mock.ExpectQuery("SELECT tier_name FROM order_items").
        WillReturnRows(sqlmock.NewRows([]string{"tier_name"}).AddRow("Adult").AddRow("Student"))

    repo := NewOrderRepo(db)
    order, err := repo.Reissue(context.Background(), token)
    if err != nil {
        t.Fatalf("Reissue: %v", err)
    }
    if len(order.Seats) != 2 || order.Seats[0] != (model.SeatRef{Row: 8, Col: 7}) {
        t.Errorf("seats = %v", order.Seats)
    }
    if len(order.TierNames) != 2 || order.TierNames[1] != "Student" {
        t.Errorf("tier names = %v", order.TierNames)
    }
}
