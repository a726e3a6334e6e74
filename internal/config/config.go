package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The gateway block is resolved once at
// startup and injected into the payment and handler layers; nothing in
// the codebase reads gateway credentials from ambient state.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify buyer access tokens

    EcpayMerchantID    string // gateway merchant identifier
    EcpayHashKey       string // gateway CheckMacValue hash key
    EcpayHashIV        string // gateway CheckMacValue hash IV
    EcpayReturnURL     string // settlement callback URL registered with the gateway
    EcpayClientBackURL string // browser return URL after payment
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:       must("APP_ENV"),      // environment (dev/test/prod)
        Port:      must("APP_PORT"),     // port to bind the HTTP server
        DBUser:    must("DB_USER"),      // database user
        DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:    must("DB_HOST"),      // database host
        DBPort:    must("DB_PORT"),      // database port
        DBName:    must("DB_NAME"),      // database name
        JWTSecret: must("JWT_SECRET"),   // secret used for verifying JWTs

        EcpayMerchantID:    must("ECPAY_MERCHANT_ID"),    // merchant id assigned by the gateway
        EcpayHashKey:       must("ECPAY_HASH_KEY"),       // signature hash key
        EcpayHashIV:        must("ECPAY_HASH_IV"),        // signature hash IV
        EcpayReturnURL:     must("ECPAY_RETURN_URL"),     // server-to-server callback URL
        EcpayClientBackURL: must("ECPAY_CLIENT_BACK_URL"), // client-facing return URL
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
