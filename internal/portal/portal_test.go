package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/xmum-booking/internal/booking"
	"github.com/example/xmum-booking/internal/captcha"
)

// fakeSolver returns a canned answer, or ErrUnresolved when text is empty.
type fakeSolver struct {
	text  string
	calls int
	image []byte
}

func (f *fakeSolver) Solve(_ context.Context, image []byte) (string, error) {
	f.calls++
	f.image = image
	if f.text == "" {
		return "", captcha.ErrUnresolved
	}
	return f.text, nil
}

const loginPage = `<html><body>
<form method="POST" action="/authenticate">
<input type="hidden" name="_token" value="form-token-1">
<img src="/captcha/flex" alt="Captcha">
</form></body></html>`

func newClient(t *testing.T, srv *httptest.Server, solver captcha.Solver) *Client {
	t.Helper()
	c, err := New(srv.URL, "test-agent", 5*time.Second, solver)
	require.NoError(t, err)
	return c
}

func TestLoginSuccess(t *testing.T) {
	var gotForm map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/captcha/flex", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\x89PNG fake image bytes"))
	})
	mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"campus-id": r.PostFormValue("campus-id"),
			"password":  r.PostFormValue("password"),
			"captcha":   r.PostFormValue("captcha"),
			"_token":    r.PostFormValue("_token"),
		}
		fmt.Fprint(w, `<html>Welcome! <a href="/logout">Logout</a></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	solver := &fakeSolver{text: "AB12"}
	c := newClient(t, srv, solver)

	require.NoError(t, c.Login(context.Background(), "MCS1234", "hunter2"))
	require.Equal(t, 1, solver.calls)
	require.Equal(t, []byte("\x89PNG fake image bytes"), solver.image)
	require.Equal(t, map[string]string{
		"campus-id": "MCS1234",
		"password":  "hunter2",
		"captcha":   "AB12",
		"_token":    "form-token-1",
	}, gotForm)
}

func TestLoginOmitsTokenWhenPageHasNone(t *testing.T) {
	var tokenPresent bool
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><img src="/CAPTCHA/img"></html>`)
	})
	mux.HandleFunc("/CAPTCHA/img", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	})
	mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, tokenPresent = r.PostForm["_token"]
		fmt.Fprint(w, `dashboard`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{text: "XY99"})
	require.NoError(t, c.Login(context.Background(), "u", "p"))
	require.False(t, tokenPresent)
}

func TestLoginNoCaptchaImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><img src="/logo.png"></html>`)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{text: "AB12"})
	err := c.Login(context.Background(), "u", "p")
	require.ErrorIs(t, err, ErrCaptchaNotFound)
}

func TestLoginCaptchaUnresolvedIsRecoverable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/captcha/flex", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{}) // always unresolved
	err := c.Login(context.Background(), "u", "p")
	require.ErrorIs(t, err, captcha.ErrUnresolved)
}

func TestLoginClassifiesRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want AuthStatus
	}{
		{"captcha rejected", `<p>The captcha is incorrect</p>`, AuthCaptchaRejected},
		{"credentials rejected", `<p>Your password is incorrect</p>`, AuthCredentialsRejected},
		{"unknown", `<p>Service unavailable, try later</p>`, AuthUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, loginPage)
			})
			mux.HandleFunc("/captcha/flex", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("img"))
			})
			mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			c := newClient(t, srv, &fakeSolver{text: "AB12"})
			err := c.Login(context.Background(), "u", "p")
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, tc.want, authErr.Status)
		})
	}
}

func TestLoginPortalUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{text: "AB12"})
	err := c.Login(context.Background(), "u", "p")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.StatusBadGateway, terr.Status)
}

func TestTokenFromMetaTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/space-booking/library-space-booking", r.URL.Path)
		fmt.Fprint(w, `<html><head><meta name="csrf-token" content="meta-tok"></head>
<body><input type="hidden" name="_token" value="input-tok"></body></html>`)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "meta-tok", tok) // meta wins over the hidden input
}

func TestTokenFallsBackToHiddenInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><input type="hidden" name="_token" value="input-tok"></body></html>`)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "input-tok", tok)
}

func TestTokenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>nothing here</body></html>`)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	_, err := c.Token(context.Background())
	require.ErrorIs(t, err, ErrTokenMissing)
}

const availabilityFragment = `<div>
<table id="group_discussion_room_table"><tbody><tr>
<td><button class="booking-btn" data-booking-room-id="12" data-booking-room-name="E231"
 data-booking-start-time="19:00" data-booking-end-time="21:00" data-booking-date="2025-06-07">Book</button></td>
<td><button class="booking-btn" disabled data-booking-room-id="13" data-booking-room-name="E232"
 data-booking-start-time="19:00" data-booking-end-time="21:00" data-booking-date="2025-06-07">Booked</button></td>
<td><button class="booking-btn" data-booking-room-id="14" data-booking-room-name="W241"
 data-booking-start-time="17:00" data-booking-end-time="19:00" data-booking-date="2025-06-07">Book</button></td>
</tr></tbody></table>
<table id="study_room_table"><tbody><tr>
<td><button class="booking-btn" data-booking-room-id="44" data-booking-room-name="S221"
 data-booking-start-time="19:00" data-booking-end-time="21:00" data-booking-date="2025-06-07">Book</button></td>
</tr></tbody></table></div>`

func availabilityServer(t *testing.T, fragment string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2025-06-07", r.URL.Query().Get("bookingDate"))
		require.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		require.Equal(t, "tok", r.Header.Get("X-CSRF-TOKEN"))
		json.NewEncoder(w).Encode(map[string]string{"html": fragment})
	}))
}

func TestSlotsExactWindowSkipsDisabledAndOtherTables(t *testing.T) {
	srv := availabilityServer(t, availabilityFragment)
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	disc, err := c.Slots(context.Background(), "2025-06-07", "tok", booking.RoomGroup, booking.ExactWindow("19:00", "21:00"))
	require.NoError(t, err)
	require.True(t, disc.TableFound)
	// E232 is disabled, S221 is in another table, W241 is the wrong window.
	require.Len(t, disc.Matched, 1)
	require.Equal(t, booking.Slot{
		RoomID:    "12",
		RoomName:  "E231",
		StartTime: "19:00",
		EndTime:   "21:00",
		Date:      "2025-06-07",
	}, disc.Matched[0])
	require.Len(t, disc.Open, 2)
}

func TestSlotsAnyTimeDocumentOrder(t *testing.T) {
	srv := availabilityServer(t, availabilityFragment)
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	disc, err := c.Slots(context.Background(), "2025-06-07", "tok", booking.RoomGroup, booking.AnyTime())
	require.NoError(t, err)
	require.Len(t, disc.Matched, 2)
	require.Equal(t, "E231", disc.Matched[0].RoomName)
	require.Equal(t, "W241", disc.Matched[1].RoomName)
}

func TestSlotsIdempotent(t *testing.T) {
	srv := availabilityServer(t, availabilityFragment)
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	first, err := c.Slots(context.Background(), "2025-06-07", "tok", booking.RoomGroup, booking.AnyTime())
	require.NoError(t, err)
	second, err := c.Slots(context.Background(), "2025-06-07", "tok", booking.RoomGroup, booking.AnyTime())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSlotsTableAbsent(t *testing.T) {
	srv := availabilityServer(t, `<div><p>closed for the holiday</p></div>`)
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	disc, err := c.Slots(context.Background(), "2025-06-07", "tok", booking.RoomGroup, booking.AnyTime())
	require.NoError(t, err)
	require.False(t, disc.TableFound)
	require.Empty(t, disc.Matched)
}

func TestSlotsMalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>not json at all</html>`)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	_, err := c.Slots(context.Background(), "2025-06-07", "tok", booking.RoomGroup, booking.AnyTime())
	require.ErrorIs(t, err, ErrParse)
}

func bookingSlot() booking.Slot {
	return booking.Slot{RoomID: "12", RoomName: "E231", StartTime: "19:00", EndTime: "21:00", Date: "2025-06-07"}
}

func TestBookSuccess(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/space-booking/book-library-room", r.URL.Path)
		require.Equal(t, "tok", r.Header.Get("X-CSRF-TOKEN"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"_token":           r.PostFormValue("_token"),
			"bookingRoomId":    r.PostFormValue("bookingRoomId"),
			"bookingDate":      r.PostFormValue("bookingDate"),
			"bookingStartTime": r.PostFormValue("bookingStartTime"),
			"bookingEndTime":   r.PostFormValue("bookingEndTime"),
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "Booking successful"})
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	require.NoError(t, c.Book(context.Background(), bookingSlot(), "tok"))
	require.Equal(t, map[string]string{
		"_token":           "tok",
		"bookingRoomId":    "12",
		"bookingDate":      "2025-06-07",
		"bookingStartTime": "19:00",
		"bookingEndTime":   "21:00",
	}, gotForm)
}

func TestBookRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 409, "message": "Room already booked"})
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	err := c.Book(context.Background(), bookingSlot(), "tok")
	var berr *BookingError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, 409, berr.Code)
	require.Equal(t, "Room already booked", berr.Message)
}

func TestBookMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>oops</html>`)
	}))
	defer srv.Close()

	c := newClient(t, srv, &fakeSolver{})
	err := c.Book(context.Background(), bookingSlot(), "tok")
	require.ErrorIs(t, err, ErrParse)
}

func TestResolveRelativeCaptchaURL(t *testing.T) {
	c, err := New("https://eservices.xmu.edu.my", "ua", time.Second, &fakeSolver{})
	require.NoError(t, err)

	abs, err := c.resolve("/captcha/flex?r=1")
	require.NoError(t, err)
	require.Equal(t, "https://eservices.xmu.edu.my/captcha/flex?r=1", abs)

	// Absolute URLs pass through untouched.
	abs, err = c.resolve("https://cdn.example.com/captcha.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/captcha.png", abs)
}

func TestTransportErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := &TransportError{Op: "fetch", Err: inner}
	require.ErrorIs(t, err, inner)
}
