package enum

/*----------- EnvEnum -----------*/

type EnvEnum string

const (
	LOCAL       EnvEnum = "local"
	DEVELOPMENT EnvEnum = "development"
	STAGING     EnvEnum = "staging"
	PRODUCTION  EnvEnum = "production"
	TEST        EnvEnum = "test"
)

func (e EnvEnum) ToString() string {
	return string(e)
}

func (e EnvEnum) IsValid() bool {
	switch e {
	case LOCAL, DEVELOPMENT, STAGING, PRODUCTION, TEST:
		return true
	}
	return false
}

// RunsWorkers reports whether background consumers start with the API.
func (e EnvEnum) RunsWorkers() bool {
	return e != TEST
}

// GinMode maps the environment to a gin mode string.
func (e EnvEnum) GinMode() string {
	switch e {
	case PRODUCTION, STAGING:
		return "release"
	case TEST:
		return "test"
	}
	return "debug"
}
