package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はWebサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandList は打ち上げ一覧を端末に表示することを示す。
	CommandList Command = "list"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "list":
		return CommandList
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// listQuery は list サブコマンドの検索語を返す。複数の引数は空白で連結する。
func listQuery(args []string) string {
	if len(args) < 2 {
		return ""
	}
	q := args[1]
	for _, a := range args[2:] {
		q += " " + a
	}
	return q
}
