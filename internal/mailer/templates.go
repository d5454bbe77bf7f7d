package mailer

import "fmt"

// Confirmation carries the link that activates a new account.
func Confirmation(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "【TSUNDOKU】メールアドレスの確認",
		Body: fmt.Sprintf(`%s さん

TSUNDOKU へのご登録ありがとうございます。
以下のリンクからメールアドレスを確認すると、ログインできるようになります。

%s

お心当たりがない場合は、このメールを破棄してください。
`, username, link),
	}
}

// Welcome is sent once the address has been confirmed.
func Welcome(to, username string) Message {
	return Message{
		To:      to,
		Subject: "【TSUNDOKU】ご登録ありがとうございます",
		Body: fmt.Sprintf(`%s さん

メールアドレスの確認が完了しました。
積んだ本がじっくり熟成していく様子をお楽しみください。
`, username),
	}
}

// ResetPassword carries a single-use link for choosing a new password.
func ResetPassword(to, link string) Message {
	return Message{
		To:      to,
		Subject: "【TSUNDOKU】パスワード再設定のご案内",
		Body: fmt.Sprintf(`%s 宛てのご案内です。

以下のリンクから新しいパスワードを設定してください。
リンクの有効期限は 6 時間です。

%s

パスワードの再設定を依頼していない場合は、このメールを破棄してください。
`, to, link),
	}
}

// AlreadyRegistered is sent when someone signs up with an address that already has an account.
func AlreadyRegistered(to string) Message {
	return Message{
		To:      to,
		Subject: "【TSUNDOKU】アカウント登録の試みについて",
		Body: fmt.Sprintf(`%s 宛てのご案内です。

このメールアドレスで TSUNDOKU のアカウント登録が試みられましたが、
既にアカウントが登録されています。
お心当たりがない場合は、このメールを破棄してください。
パスワードをお忘れの場合はログイン画面の「パスワードを忘れた方」から再設定できます。
`, to),
	}
}
