package service

import "testing"

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		name  string
		in    LoginInput
		field string
		msg   string
	}{
		{name: "invalid email", in: LoginInput{Email: "no-es-correo", Password: "x"}, field: "email", msg: MsgInvalidEmail},
		{name: "empty email", in: LoginInput{Email: "  ", Password: "x"}, field: "email", msg: MsgInvalidEmail},
		{name: "empty password", in: LoginInput{Email: "test@smarthealth.com"}, field: "password", msg: MsgPasswordRequired},
		{name: "email checked first", in: LoginInput{Email: "x"}, field: "email", msg: MsgInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLogin(tc.in)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if err.Field != tc.field || err.Message != tc.msg {
				t.Fatalf("unexpected error %+v", err)
			}
		})
	}

	got, err := ValidateLogin(LoginInput{Email: "  test@smarthealth.com ", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "test@smarthealth.com" {
		t.Fatalf("expected trimmed email, got %q", got.Email)
	}
}

func TestValidateRegister_Order(t *testing.T) {
	valid := RegisterInput{
		FullName:        "Ana María",
		Email:           "ana@example.com",
		Password:        "abcdefgh",
		ConfirmPassword: "abcdefgh",
		AcceptTerms:     true,
	}

	cases := []struct {
		name   string
		mutate func(in *RegisterInput)
		msg    string
	}{
		{name: "short name", mutate: func(in *RegisterInput) { in.FullName = " Al " }, msg: MsgFullNameTooShort},
		{name: "name before email", mutate: func(in *RegisterInput) { in.FullName = ""; in.Email = "x" }, msg: MsgFullNameTooShort},
		{name: "invalid email", mutate: func(in *RegisterInput) { in.Email = "ana@" }, msg: MsgInvalidEmail},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "abc"; in.ConfirmPassword = "abc" }, msg: MsgPasswordTooShort},
		{name: "mismatch", mutate: func(in *RegisterInput) { in.ConfirmPassword = "abcdefgx" }, msg: MsgPasswordMismatch},
		{name: "terms", mutate: func(in *RegisterInput) { in.AcceptTerms = false }, msg: MsgTermsRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := ValidateRegister(in)
			if err == nil || err.Message != tc.msg {
				t.Fatalf("expected %q, got %+v", tc.msg, err)
			}
		})
	}

	if _, err := ValidateRegister(valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestValidateRegister_NameCountsRunes(t *testing.T) {
	in := RegisterInput{
		FullName:        "Íñé",
		Email:           "a@b.co",
		Password:        "12345678",
		ConfirmPassword: "12345678",
		AcceptTerms:     true,
	}
	if _, err := ValidateRegister(in); err != nil {
		t.Fatalf("expected 3-rune name accepted, got %v", err)
	}
}

func TestConfirmMismatch(t *testing.T) {
	if ConfirmMismatch("abcdefgh", "") {
		t.Fatalf("empty confirmation should not be flagged")
	}
	if ConfirmMismatch("abcdefgh", "abcdefgh") {
		t.Fatalf("equal values should not be flagged")
	}
	if !ConfirmMismatch("abcdefgh", "abcdefgx") {
		t.Fatalf("expected mismatch")
	}
}
