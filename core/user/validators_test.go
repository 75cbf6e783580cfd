package user

import (
	"log"
	"os"
	"testing"
)

type discardLogger struct{ *log.Logger }

func (l discardLogger) Debug(msg string, args ...interface{}) {}
func (l discardLogger) Info(msg string, args ...interface{})  {}
func (l discardLogger) Warn(msg string, args ...interface{})  {}
func (l discardLogger) Error(msg string, args ...interface{}) { l.Println(msg) }
func (l discardLogger) Fatal(msg string, args ...interface{}) { l.Fatalln(msg) }

func TestCheckPassword(t *testing.T) {
	LoadCommonPasswords(discardLogger{log.New(os.Stderr, "TEST : ", 0)})

	tests := []struct {
		name  string
		pwd   string
		uname string
		want  string
	}{
		{name: "too short", pwd: "aB1@", want: pwdMinLenTag},
		{name: "whitespace", pwd: "aB1@ xyz99", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "abcDEF123", want: pwdComplexityTag},
		{name: "no upper", pwd: "abc@def123", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Rockstar@1", uname: "rockstar1", want: pwdAttrSimTag},
		{name: "common", pwd: "Password@123", want: pwdNoCommonTag},
		{name: "valid", pwd: "Gr8!Tulip-Lamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkPassword(tt.pwd, "", tt.uname, ""); got != tt.want {
				t.Errorf("checkPassword() = %q, want %q", got, tt.want)
			}
		})
	}
}
