package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/chat"
	"smarthealth-frontend/internal/config"
	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/format"
	"smarthealth-frontend/internal/gateway"
	"smarthealth-frontend/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	authGateway, queryGateway, err := gateway.New(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = "cli-local-secret"
	}
	jwtSvc := service.NewJWTService(secret, cfg.SessionTTL())
	limiter := service.NewLoginRateLimiter(cfg.LoginWindow(), cfg.LoginMaxAttempts)
	authCtrl := service.NewAuthController(logger, authGateway, jwtSvc, limiter)
	historySvc := service.NewHistoryService(logger, nil)

	for {
		token, ok := authMenu(ctx, reader, authCtrl)
		if !ok {
			return
		}
		auth, err := authCtrl.Session(ctx, token)
		if err != nil {
			fmt.Printf("Error de sesión: %v\n", err)
			continue
		}
		if err := chatFlow(ctx, reader, authCtrl, token, auth, queryGateway, historySvc, logger); err != nil {
			fmt.Printf("Error en chat: %v\n", err)
		}
	}
}

// authMenu repite el menú hasta obtener un token de sesión. ok=false al salir.
func authMenu(ctx context.Context, reader *bufio.Reader, authCtrl *service.AuthController) (string, bool) {
	for {
		fmt.Println("\n===== SmartHealth =====")
		fmt.Println("[1] Iniciar sesión")
		fmt.Println("[2] Crear cuenta")
		fmt.Println("[3] Salir")
		fmt.Print("Selecciona una opcion: ")

		switch readLine(reader) {
		case "1":
			if token, ok := loginFlow(ctx, reader, authCtrl); ok {
				return token, true
			}
		case "2":
			registerFlow(ctx, reader, authCtrl)
		case "3":
			return "", false
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

func loginFlow(ctx context.Context, reader *bufio.Reader, authCtrl *service.AuthController) (string, bool) {
	fmt.Print("Correo electrónico: ")
	email := readLine(reader)
	fmt.Print("Contraseña: ")
	password := readLine(reader)

	view := &cliFormView{}
	token, err := authCtrl.Login(ctx, service.LoginInput{Email: email, Password: password}, view)
	if err != nil {
		return "", false
	}
	return token, true
}

func registerFlow(ctx context.Context, reader *bufio.Reader, authCtrl *service.AuthController) {
	fmt.Print("Nombre completo: ")
	fullName := readLine(reader)
	fmt.Print("Correo electrónico: ")
	email := readLine(reader)
	fmt.Print("Contraseña: ")
	password := readLine(reader)
	fmt.Print("Confirmar contraseña: ")
	confirm := readLine(reader)
	if service.ConfirmMismatch(password, confirm) {
		fmt.Println(service.MsgPasswordMismatch)
	}
	fmt.Print("¿Aceptas los términos y condiciones? (s/N): ")
	accepted := strings.EqualFold(readLine(reader), "s")

	_ = authCtrl.Register(ctx, service.RegisterInput{
		FullName:        fullName,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
		AcceptTerms:     accepted,
	}, &cliFormView{})
}

func chatFlow(
	ctx context.Context,
	reader *bufio.Reader,
	authCtrl *service.AuthController,
	token string,
	auth domain.AuthSession,
	queries gateway.QueryGateway,
	history chat.Recorder,
	logger *zap.Logger,
) error {
	view := &cliChatView{initials: format.Initials(auth.User.FullName)}
	ctrl, err := chat.New(chat.Options{
		Auth:    auth,
		Queries: queries,
		View:    view,
		History: history,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	profile := ctrl.Profile()
	fmt.Printf("\n[%s] %s <%s>\n", profile.Initials, profile.Name, profile.Email)
	fmt.Println("Comandos: /tipo <1-4>, /doc <número>, /nuevo, /salir")

	docType := domain.DocumentCC
	docNumber := ""
	for {
		fmt.Printf("%s %s > ", docType.Name(), docNumber)
		text, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("leer input: %w", err)
		}
		text = strings.TrimSpace(text)

		switch {
		case text == "":
			continue
		case text == "/nuevo":
			ctrl.NewSession()
		case text == "/salir":
			fmt.Printf("%s (s/N): ", service.MsgLogoutConfirm)
			if !strings.EqualFold(readLine(reader), "s") {
				continue
			}
			if err := authCtrl.Logout(ctx, token); err != nil {
				logger.Warn("logout failed", zap.Error(err))
			}
			fmt.Println("Sesión cerrada.")
			return nil
		case strings.HasPrefix(text, "/tipo"):
			v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, "/tipo")))
			if err != nil || !domain.DocumentType(v).Valid() {
				fmt.Println("Tipo invalido. Usa 1 (CC), 2 (TI), 3 (CE) o 4 (PA).")
				continue
			}
			docType = domain.DocumentType(v)
		case strings.HasPrefix(text, "/doc"):
			docNumber = strings.TrimSpace(strings.TrimPrefix(text, "/doc"))
		default:
			err := ctrl.Send(ctx, chat.SendInput{Question: text, DocumentType: docType, DocumentNumber: docNumber})
			if errors.Is(err, chat.ErrIncompleteInput) {
				fmt.Println("Indica el número de documento con /doc <número> antes de preguntar.")
			} else if err != nil {
				fmt.Printf("error enviando consulta: %v\n", err)
			}
		}
	}
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// cliFormView imprime en consola el estado de los formularios de autenticación.
type cliFormView struct{}

func (cliFormView) ShowError(msg string)   { fmt.Printf("ERROR: %s\n", msg) }
func (cliFormView) HideError()             {}
func (cliFormView) ShowSuccess(msg string) { fmt.Printf("✅ %s\n", msg) }
func (cliFormView) SetFormEnabled(bool)    {}
func (cliFormView) Focus(string)           {}

func (cliFormView) SetLoading(loading bool) {
	if loading {
		fmt.Println("Cargando...")
	}
}

func (cliFormView) Navigate(path string, delay time.Duration) {
	if delay > 0 {
		time.Sleep(delay)
	}
}

// cliChatView imprime los mensajes del chat en consola.
type cliChatView struct {
	initials string
}

func (v *cliChatView) Reset() {
	fmt.Println("\n---- ¡Nueva Consulta! ----")
	fmt.Println("Proporciona la información del paciente y tu pregunta.")
}

func (v *cliChatView) Render(msg domain.Message, _ bool) {
	avatar := format.AssistantInitials
	if msg.Role == domain.RoleUser {
		avatar = v.initials
	}
	if msg.Metadata != nil {
		fmt.Printf("[%s] (%s) %s\n", avatar, msg.Metadata.Label(), format.Clock(msg.CreatedAt))
	} else {
		fmt.Printf("[%s] %s\n", avatar, format.Clock(msg.CreatedAt))
	}
	fmt.Println(msg.Content)
}

func (v *cliChatView) ShowTyping()         { fmt.Printf("[%s] escribiendo...\n", format.AssistantInitials) }
func (v *cliChatView) HideTyping()         {}
func (v *cliChatView) ClearInput()         {}
func (v *cliChatView) SetSendEnabled(bool) {}
